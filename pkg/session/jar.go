// Package session holds the cookie state a scraping client carries between
// requests to the same engine. Unlike net/http/cookiejar it is a flat
// name→value map with no domain or path scoping, mirroring what the HTML
// endpoints actually key on, and it honors the "deleted" sentinel some
// engines send to expire a cookie.
package session

import (
	"strings"
	"sync"
)

// Jar is a process-lifetime cookie store. One Jar is shared by every request
// a client makes; concurrent searches interleave their updates last-write-wins.
// The mutex guards the map itself, not cross-request consistency.
type Jar struct {
	mu      sync.Mutex
	cookies map[string]string
	order   []string
}

// NewJar returns an empty cookie jar.
func NewJar() *Jar {
	return &Jar{cookies: make(map[string]string)}
}

// Ingest consumes raw Set-Cookie values. Each entry is reduced to its leading
// name=value pair (attributes after the first ';' are dropped). Entries
// without '=' are skipped. An empty or case-insensitive "deleted" value
// removes the cookie instead of storing it.
func (j *Jar) Ingest(setCookies []string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, raw := range setCookies {
		pair, _, _ := strings.Cut(raw, ";")
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" {
			continue
		}

		if value == "" || strings.EqualFold(value, "deleted") {
			j.remove(name)
			continue
		}

		if _, exists := j.cookies[name]; !exists {
			j.order = append(j.order, name)
		}
		j.cookies[name] = value
	}
}

// Header renders the jar as a Cookie header value. The second return is false
// when the jar is empty and no header should be sent.
func (j *Jar) Header() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.cookies) == 0 {
		return "", false
	}

	pairs := make([]string, 0, len(j.cookies))
	for _, name := range j.order {
		pairs = append(pairs, name+"="+j.cookies[name])
	}
	return strings.Join(pairs, "; "), true
}

// Get returns the current value for a cookie name.
func (j *Jar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.cookies[name]
	return v, ok
}

// Len reports the number of stored cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}

// remove drops a cookie by name. Caller must hold the lock.
func (j *Jar) remove(name string) {
	if _, ok := j.cookies[name]; !ok {
		return
	}
	delete(j.cookies, name)
	for i, n := range j.order {
		if n == name {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
}
