package config

// Normalize rewrites the raw configuration map into its canonical shape.
//
// It runs once, before decoding and validation, and mutates the map in
// place:
//   - a missing watch block becomes {enabled: false}
//   - a bare boolean watch flag becomes {enabled: <flag>}; any other
//     non-object value becomes {enabled: false}
//   - `vite.ssr: true` expands to {entrypoint: "server.js"}
//   - `vite.ssr: false` is removed
//
// Normalize never fails; values it does not recognize are left for the
// decoder and validator to reject.
func Normalize(raw map[string]any) {
	if raw == nil {
		return
	}

	switch w := raw["watch"].(type) {
	case map[string]any:
		// already canonical
	case bool:
		raw["watch"] = map[string]any{"enabled": w}
	default:
		raw["watch"] = map[string]any{"enabled": false}
	}

	vite, ok := raw["vite"].(map[string]any)
	if !ok {
		return
	}
	if ssr, ok := vite["ssr"].(bool); ok {
		if ssr {
			vite["ssr"] = map[string]any{"entrypoint": DefaultSSREntrypoint}
		} else {
			delete(vite, "ssr")
		}
	}
}
