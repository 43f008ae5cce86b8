package batch

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/Polyglot/core/content"
)

// Dictionary flattens the metadata of n into "category/.../type" keys.
func Dictionary(n *content.Node) map[string]string {
	out := make(map[string]string, len(n.Metadata))
	for _, m := range n.Metadata {
		out[dictionaryKey(m.Category, m.Type)] = m.Value
	}
	return out
}

// SetDictionary stores every entry of dict as metadata on n. The last
// path element of a key is the type, the rest the category path. Keys are
// applied in sorted order.
func SetDictionary(n *content.Node, dict map[string]string) {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var category []string
		typ := k
		if i := strings.LastIndexByte(k, '/'); i >= 0 {
			category = strings.Split(k[:i], "/")
			typ = k[i+1:]
		}
		n.SetMetadata(category, typ, dict[k])
	}
}

func dictionaryKey(category []string, typ string) string {
	if len(category) == 0 {
		return typ
	}
	return strings.Join(category, "/") + "/" + typ
}
