package config

// LoadedPrompts holds the content of prompts loaded from files, keyed by prompt name
type LoadedPrompts struct {
	System map[string]string
	User   map[string]string
}

// Count returns how many prompts were loaded from files
func (l LoadedPrompts) Count() int {
	return len(l.System) + len(l.User)
}

func (l LoadedPrompts) withFallback(global LoadedPrompts) LoadedPrompts {
	return LoadedPrompts{
		System: mergePrompts(l.System, global.System),
		User:   mergePrompts(l.User, global.User),
	}
}

func mergePrompts(primary, fallback map[string]string) map[string]string {
	if len(fallback) == 0 {
		return primary
	}
	out := make(map[string]string, len(primary)+len(fallback))
	for k, v := range fallback {
		out[k] = v
	}
	for k, v := range primary {
		out[k] = v
	}
	return out
}
