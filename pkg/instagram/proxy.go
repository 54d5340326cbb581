package instagram

import (
	"fmt"
	"hash/fnv"
	"net/url"

	"github.com/rotisserie/eris"
)

// ProxyProvider supplies the outbound network identity for one fetch attempt.
// A nil URL means a direct connection.
type ProxyProvider interface {
	SessionURL(sessionID string) (*url.URL, error)
}

// SessionID derives the identity key for one identifier attempt. A fresh key
// per attempt means a blocked or flagged identity from a failed attempt is
// never reused.
func SessionID(identifier string, attempt int) string {
	return fmt.Sprintf("session_%s_%d", identifier, attempt)
}

// Direct is a ProxyProvider that always connects without a proxy.
type Direct struct{}

// SessionURL implements ProxyProvider.
func (Direct) SessionURL(string) (*url.URL, error) { return nil, nil }

// StaticRotator picks a proxy from a fixed list, keyed deterministically by
// session id so distinct attempts land on distinct identities.
type StaticRotator struct {
	urls []*url.URL
}

// NewStaticRotator parses the given proxy URLs into a rotator.
func NewStaticRotator(raw []string) (*StaticRotator, error) {
	if len(raw) == 0 {
		return nil, eris.New("proxy: at least one proxy URL is required")
	}
	urls := make([]*url.URL, 0, len(raw))
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil {
			return nil, eris.Wrapf(err, "proxy: parse %q", r)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, eris.Errorf("proxy: %q is not an absolute URL", r)
		}
		urls = append(urls, u)
	}
	return &StaticRotator{urls: urls}, nil
}

// SessionURL implements ProxyProvider.
func (r *StaticRotator) SessionURL(sessionID string) (*url.URL, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return r.urls[h.Sum32()%uint32(len(r.urls))], nil
}
