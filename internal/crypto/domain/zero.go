package domain

// Zero wipes key material in place. Safe on nil slices.
func Zero(keys ...[]byte) {
	for _, k := range keys {
		clear(k)
	}
}
