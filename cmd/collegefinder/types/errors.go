package types

import (
	"fmt"
)

// InvalidFilterError is returned for structured filter input that cannot be
// turned into Filters. It is raised before any upstream request is made.
type InvalidFilterError struct {
	Field  string // filter name as the caller sent it, e.g. "max_tuition"
	Value  string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid filter %s=%q: %s", e.Field, e.Value, e.Reason)
}

// UpstreamError wraps a failed call to the upstream data API: transport
// failure, non-2xx status or an unparseable body. No partial result
// accompanies it.
type UpstreamError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a deployment problem such as a missing API
// credential. It is kept distinct from UpstreamError so a broken network can
// be told apart from a misconfigured service.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Reason)
}
