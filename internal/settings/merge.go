package settings

import (
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// keptEmpty lists, per object path, the known keys whose explicit empty
// value ("", [], {}, null) stays in the file when the document omits them.
var keptEmpty = map[string][]string{
	"":             documentKeys,
	"context_menu": contextMenuKeys,
}

// mergeRaw rewrites the object old so it holds the content of cur. Keys
// already in old keep their position; new keys are appended in cur's order.
// When either side is not an object cur is returned as is.
func mergeRaw(old, cur []byte, path string) ([]byte, error) {
	o, c := gjson.ParseBytes(old), gjson.ParseBytes(cur)
	if !o.IsObject() || !c.IsObject() {
		return cur, nil
	}

	out := append([]byte(nil), old...)
	var err error
	o.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if c.Get(gjson.Escape(key)).Exists() {
			return true
		}
		if slices.Contains(keptEmpty[path], key) && isEmptyValue(v) {
			return true
		}
		out, err = sjson.DeleteBytes(out, gjson.Escape(key))
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	c.ForEach(func(k, v gjson.Result) bool {
		key := gjson.Escape(k.String())
		value := []byte(v.Raw)
		if prev := gjson.GetBytes(out, key); prev.Exists() {
			value, err = mergeRaw([]byte(prev.Raw), value, joinPath(path, k.String()))
			if err != nil {
				return false
			}
		}
		out, err = sjson.SetRawBytes(out, key, value)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isEmptyValue(v gjson.Result) bool {
	switch {
	case v.Type == gjson.Null:
		return true
	case v.Type == gjson.String:
		return v.Str == ""
	case v.IsArray():
		return len(v.Array()) == 0
	case v.IsObject():
		return len(v.Map()) == 0
	}
	return false
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
