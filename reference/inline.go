package reference

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/SolomonYakubu/dop-marketplace-sub000/common"
)

const dataUrlPrefix = "data:application/json"

// DecodeInline decodes a reference that carries its payload in-band: a
// data:application/json URL (base64 or percent-encoded) or literal JSON
// text. The second return is false when the reference is not
// self-contained, or when the payload is not a JSON object; callers then
// proceed to network resolution.
func DecodeInline(ref string) (map[string]interface{}, bool) {
	if strings.HasPrefix(ref, dataUrlPrefix) {
		return decodeDataUrl(ref)
	}

	if strings.HasPrefix(ref, "{") || strings.HasPrefix(ref, "[") {
		return parseObject([]byte(ref))
	}

	return nil, false
}

func decodeDataUrl(ref string) (map[string]interface{}, bool) {
	header, payload, found := strings.Cut(ref, ",")
	if !found {
		return nil, false
	}

	var raw []byte
	if strings.Contains(header, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders omit padding.
			b, err = base64.RawStdEncoding.DecodeString(payload)
			if err != nil {
				return nil, false
			}
		}
		raw = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, false
		}
		raw = []byte(s)
	}

	return parseObject(raw)
}

// parseObject accepts only the object form; arrays and scalars are valid
// JSON but useless as a metadata document, so they count as not-decodable.
func parseObject(raw []byte) (map[string]interface{}, bool) {
	var out map[string]interface{}
	if err := common.SonicCfg.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	if out == nil {
		return nil, false
	}
	return out, true
}
