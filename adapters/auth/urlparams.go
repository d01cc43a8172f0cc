package auth

import "github.com/phantom/wallet-sdk-sub001/ports"

// StaticParams is a fixed parameter set implementing the URL parameter
// accessor, for headless deployments where the completion leg arrives via
// an API call rather than a browser navigation.
type StaticParams map[string]string

var _ ports.URLParams = (StaticParams)(nil)

// GetParam returns the value for key, or "" if absent.
func (p StaticParams) GetParam(key string) string {
	return p[key]
}
