package netconf

// YANG model vocabulary for the RAN unit families this driver talks to,
// and the rendering of mapping paths into subtree filters.
// Reference: RFC 7317 (ietf-system), RFC 8343 (ietf-interfaces),
// RFC 8348 (ietf-hardware); vendor device-management models per family.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IETF standard model namespaces. Units serve the generic mapping table
// out of these trees regardless of vendor.
const (
	NSIETFSystem     = "urn:ietf:params:xml:ns:yang:ietf-system"
	NSIETFInterfaces = "urn:ietf:params:xml:ns:yang:ietf-interfaces"
	NSIETFHardware   = "urn:ietf:params:xml:ns:yang:ietf-hardware"
)

// Vendor device-management model namespaces.
const (
	// Huawei wireless NE models; each model is a single-namespace tree.
	NSHuaweiDevm   = "urn:huawei:yang:huawei-devm"
	NSHuaweiGnodeb = "urn:huawei:yang:huawei-gnodeb"

	// Ericsson ECIM top model, for callers building their own RPC bodies.
	// ECIM re-declares a namespace per MOM fragment, so ManagedElement
	// filters go out unqualified and match whatever the unit serves.
	NSEricssonComTop = "urn:com:ericsson:ecim:ComTop"
)

// rootNamespaces maps a model root element to the namespace its whole
// subtree lives in. Only the roots of the builtin mapping tables belong
// here: a root absent from the table is rendered unqualified, and subtree
// filtering matches an unqualified element in any namespace.
var rootNamespaces = map[string]string{
	"system-state":     NSIETFSystem,
	"interfaces-state": NSIETFInterfaces,
	"hardware-state":   NSIETFHardware,
	"devm":             NSHuaweiDevm,
	"gnodeb":           NSHuaweiGnodeb,
}

// namespaceForRoot resolves the namespace of a model root element.
func namespaceForRoot(root string) (string, bool) {
	ns, ok := rootNamespaces[root]
	return ns, ok
}

// localName strips a namespace prefix and any predicate from one path
// segment.
func localName(seg string) string {
	if i := strings.IndexByte(seg, '['); i >= 0 {
		seg = seg[:i]
	}
	if i := strings.IndexByte(seg, ':'); i >= 0 {
		seg = seg[i+1:]
	}
	return seg
}

// splitSegments breaks a slash path into its non-empty segments.
func splitSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// subtreeFilter renders a subtree key as a nested filter fragment, e.g.
// /devm/radio-units becomes <devm><radio-units/></devm>. The root element
// carries its model namespace when rootNamespaces knows it.
func subtreeFilter(key string) string {
	segs := splitSegments(key)
	if len(segs) == 0 {
		return ""
	}
	for i, s := range segs {
		segs[i] = localName(s)
	}

	var sb strings.Builder
	for i, s := range segs {
		open := s
		if i == 0 {
			if ns, ok := namespaceForRoot(s); ok {
				open = s + ` xmlns="` + ns + `"`
			}
		}
		if i == len(segs)-1 {
			sb.WriteString("<" + open + "/>")
		} else {
			sb.WriteString("<" + open + ">")
		}
	}
	for i := len(segs) - 2; i >= 0; i-- {
		sb.WriteString("</" + segs[i] + ">")
	}
	return sb.String()
}

// extractLeaf finds the leaf element named by the path's last segment and
// parses its text as a number. Matching is textual, by local tag name,
// rather than a full XML object model; scalar telemetry leaves need no
// more, but this cannot distinguish repeated tags in one reply.
func extractLeaf(reply []byte, path string) (float64, error) {
	segs := splitSegments(path)
	if len(segs) == 0 {
		return 0, fmt.Errorf("empty path")
	}
	tag := regexp.QuoteMeta(localName(segs[len(segs)-1]))

	re, err := regexp.Compile(`<(?:[\w.-]+:)?` + tag + `(?:\s[^>]*)?>\s*([^<]*?)\s*</(?:[\w.-]+:)?` + tag + `>`)
	if err != nil {
		return 0, fmt.Errorf("leaf pattern for %q: %w", tag, err)
	}

	m := re.FindSubmatch(reply)
	if m == nil {
		return 0, fmt.Errorf("element %q not found in reply", localName(segs[len(segs)-1]))
	}
	text := strings.TrimSpace(string(m[1]))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("element %q value %q is not numeric", localName(segs[len(segs)-1]), text)
	}
	return value, nil
}
