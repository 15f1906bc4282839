package httpx

import "golang.org/x/crypto/acme/autocert"

const defaultCertCache = "assets/cache"

type TLS struct {
	CertManager *autocert.Manager
}

// NewTLSConfig makes a Let's Encrypt cert manager limited to the host.
func NewTLSConfig(host string, cache string) *TLS {
	if cache == "" {
		cache = defaultCertCache
	}
	tls := TLS{
		CertManager: &autocert.Manager{
			Prompt: autocert.AcceptTOS,
			Cache:  autocert.DirCache(cache),
		},
	}
	if host != "" {
		tls.CertManager.HostPolicy = autocert.HostWhitelist(host)
	}
	return &tls
}
