package cas

import (
	"strings"

	"github.com/beevik/etree"

	apperrors "github.com/courseq/courseq/internal/errors"
)

// AuthResult is the outcome of a successful ticket validation.
// ExternalID is always non-empty; Attributes values are either string or
// []string for multi-valued attributes.
type AuthResult struct {
	ExternalID string
	Attributes map[string]any
}

// ParseResponse interprets a raw validation response body according to the
// declared protocol version.
func ParseResponse(v Version, body string) (*AuthResult, error) {
	switch v {
	case VersionCAS1:
		return parsePlain(body)
	case VersionCAS2, VersionCAS3:
		return parseXML(body)
	case VersionCAS2SAML, VersionCAS3SAML:
		return parseSAML(body)
	default:
		panic("cas: unknown protocol version " + string(v))
	}
}

// parsePlain handles the CAS 1.0 two-line text protocol:
// "yes\n<netid>" on success, "no" on rejection.
func parsePlain(body string) (*AuthResult, error) {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	switch strings.TrimSpace(lines[0]) {
	case "yes":
		if len(lines) > 1 {
			if id := strings.TrimSpace(lines[1]); id != "" {
				return &AuthResult{ExternalID: id, Attributes: map[string]any{}}, nil
			}
		}
		return nil, apperrors.MalformedResponse("malformed validation response")
	case "no":
		return nil, apperrors.AuthRejected("authentication rejected by provider")
	default:
		return nil, apperrors.MalformedResponse("malformed validation response")
	}
}

// parseXML handles CAS 2.0/3.0 serviceValidate XML. Element matching is
// case-insensitive on local names and ignores namespace prefixes; providers
// disagree on both. A failure element propagates the provider's error code.
func parseXML(body string) (*AuthResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedResponse, "unparseable validation response")
	}
	root := doc.Root()
	if root == nil {
		return nil, apperrors.MalformedResponse("empty validation response")
	}

	if failure := findDescendant(root, "authenticationFailure"); failure != nil {
		code := attrValue(failure, "code")
		if code == "" {
			code = strings.TrimSpace(failure.Text())
		}
		return nil, apperrors.AuthRejectedf("authentication failed: %s", code)
	}

	success := findDescendant(root, "authenticationSuccess")
	if success == nil {
		return nil, apperrors.MalformedResponse("authentication success element missing")
	}

	userEl := findDescendant(success, "user")
	if userEl == nil {
		return nil, apperrors.MalformedResponse("user identifier missing from success element")
	}
	externalID := strings.TrimSpace(userEl.Text())
	if externalID == "" {
		return nil, apperrors.MalformedResponse("user identifier missing from success element")
	}

	attrs := map[string]any{}
	if attrsEl := findDescendant(success, "attributes"); attrsEl != nil {
		for _, child := range attrsEl.ChildElements() {
			addAttribute(attrs, child.Tag, strings.TrimSpace(child.Text()))
		}
	}

	return &AuthResult{ExternalID: externalID, Attributes: attrs}, nil
}

// parseSAML handles the samlValidate SOAP response. Unlike the XML path,
// every failure here collapses into one generic error with no provider
// detail carried through; callers must not learn why the assertion failed.
func parseSAML(body string) (*AuthResult, error) {
	failed := apperrors.AuthRejected("authentication failed")

	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return nil, failed
	}
	root := doc.Root()
	if root == nil {
		return nil, failed
	}

	statusCode := findDescendant(root, "StatusCode")
	if statusCode == nil || !strings.HasSuffix(attrValue(statusCode, "Value"), "Success") {
		return nil, failed
	}

	subject := findDescendant(root, "NameIdentifier")
	if subject == nil {
		return nil, failed
	}
	externalID := strings.TrimSpace(subject.Text())
	if externalID == "" {
		return nil, failed
	}

	attrs := map[string]any{}
	if stmt := findDescendant(root, "AttributeStatement"); stmt != nil {
		for _, attr := range findDescendants(stmt, "Attribute") {
			name := strings.ToLower(attrValue(attr, "AttributeName"))
			if name == "" {
				continue
			}
			for _, value := range findDescendants(attr, "AttributeValue") {
				addAttribute(attrs, name, strings.TrimSpace(value.Text()))
			}
		}
	}

	return &AuthResult{ExternalID: externalID, Attributes: attrs}, nil
}

// addAttribute inserts a value, promoting repeated keys to a []string.
func addAttribute(attrs map[string]any, key, value string) {
	existing, ok := attrs[key]
	if !ok {
		attrs[key] = value
		return
	}
	switch prev := existing.(type) {
	case string:
		attrs[key] = []string{prev, value}
	case []string:
		attrs[key] = append(prev, value)
	}
}

// findDescendant returns the first descendant element whose local name
// matches, ignoring case and namespace prefix.
func findDescendant(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, local) {
			return child
		}
		if found := findDescendant(child, local); found != nil {
			return found
		}
	}
	return nil
}

// findDescendants returns all descendant elements whose local name matches,
// ignoring case and namespace prefix, in document order.
func findDescendants(el *etree.Element, local string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, local) {
			out = append(out, child)
		}
		out = append(out, findDescendants(child, local)...)
	}
	return out
}

// attrValue returns the value of the first attribute whose key matches,
// ignoring case and namespace prefix.
func attrValue(el *etree.Element, key string) string {
	for _, attr := range el.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Value
		}
	}
	return ""
}
