package gnmi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	gnmipb "github.com/openconfig/gnmi/proto/gnmi"
)

// Common OpenConfig telemetry paths.
const (
	PathSystemState       = "/system/state"
	PathSystemMemory      = "/system/memory/state"
	PathInterfaceState    = "/interfaces/interface[name=%s]/state"
	PathInterfaceCounters = "/interfaces/interface[name=%s]/state/counters"
)

// ParsePath converts an XPath-style string into a gNMI Path. List keys use
// the [name=value] form; values may be quoted. A leading slash is optional.
func ParsePath(path string) *gnmipb.Path {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return &gnmipb.Path{}
	}

	// Split on / outside of key brackets.
	var elems []string
	depth := 0
	start := 0
	for i, c := range path {
		switch c {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				if i > start {
					elems = append(elems, path[start:i])
				}
				start = i + 1
			}
		}
	}
	if start < len(path) {
		elems = append(elems, path[start:])
	}

	gnmiPath := &gnmipb.Path{}
	for _, elem := range elems {
		gnmiPath.Elem = append(gnmiPath.Elem, parsePathElem(elem))
	}
	return gnmiPath
}

// parsePathElem splits one element into its name and key map.
func parsePathElem(elem string) *gnmipb.PathElem {
	bracket := strings.IndexByte(elem, '[')
	if bracket < 0 {
		return &gnmipb.PathElem{Name: elem}
	}

	pe := &gnmipb.PathElem{
		Name: elem[:bracket],
		Key:  make(map[string]string),
	}
	rest := elem[bracket:]
	for {
		open := strings.IndexByte(rest, '[')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest, ']')
		if closing < 0 {
			break
		}
		if eq := strings.IndexByte(rest[open+1:closing], '='); eq >= 0 {
			key := rest[open+1 : open+1+eq]
			value := strings.Trim(rest[open+2+eq:closing], `'"`)
			pe.Key[key] = value
		}
		rest = rest[closing+1:]
	}
	return pe
}

// PathToString renders a gNMI Path in the XPath-style form ParsePath reads.
func PathToString(path *gnmipb.Path) string {
	if path == nil {
		return ""
	}

	var parts []string
	for _, elem := range path.Elem {
		part := elem.Name
		for k, v := range elem.Key {
			part += fmt.Sprintf("[%s=%s]", k, v)
		}
		parts = append(parts, part)
	}
	return "/" + strings.Join(parts, "/")
}

// canonicalPath renders a path stripped of list keys, so response paths
// carrying keys can be matched against mapping paths without them.
func canonicalPath(path string) string {
	parsed := ParsePath(path)
	if len(parsed.Elem) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, elem := range parsed.Elem {
		sb.WriteByte('/')
		sb.WriteString(elem.Name)
	}
	return sb.String()
}

// decodeTypedValue converts a gNMI TypedValue into a plain Go value. JSON
// payloads are unmarshaled; undecodable JSON falls back to the raw string.
func decodeTypedValue(tv *gnmipb.TypedValue) interface{} {
	if tv == nil {
		return nil
	}

	switch v := tv.Value.(type) {
	case *gnmipb.TypedValue_StringVal:
		return v.StringVal
	case *gnmipb.TypedValue_IntVal:
		return v.IntVal
	case *gnmipb.TypedValue_UintVal:
		return v.UintVal
	case *gnmipb.TypedValue_BoolVal:
		return v.BoolVal
	case *gnmipb.TypedValue_BytesVal:
		return v.BytesVal
	case *gnmipb.TypedValue_FloatVal:
		return v.FloatVal //nolint:staticcheck // older units still send float_val
	case *gnmipb.TypedValue_DoubleVal:
		return v.DoubleVal
	case *gnmipb.TypedValue_DecimalVal:
		// Decimal64 is digits scaled by 10^-precision.
		return float64(v.DecimalVal.Digits) / math.Pow10(int(v.DecimalVal.Precision)) //nolint:staticcheck // older units still send decimal_val
	case *gnmipb.TypedValue_LeaflistVal:
		var result []interface{}
		for _, elem := range v.LeaflistVal.Element {
			result = append(result, decodeTypedValue(elem))
		}
		return result
	case *gnmipb.TypedValue_JsonVal:
		return decodeJSON(v.JsonVal)
	case *gnmipb.TypedValue_JsonIetfVal:
		return decodeJSON(v.JsonIetfVal)
	case *gnmipb.TypedValue_AsciiVal:
		return v.AsciiVal
	default:
		return nil
	}
}

func decodeJSON(raw []byte) interface{} {
	var result interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return string(raw)
	}
	return result
}

// toFloat64 widens a decoded value to float64 for metric transforms.
// Numeric strings parse; anything else fails.
func toFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
