package registry

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agentstation/permitmap/pkg/constants"
	"github.com/agentstation/permitmap/pkg/errors"
	"github.com/agentstation/permitmap/pkg/permits"
)

// Kind selects the wire family a connector speaks.
type Kind string

// Connector kinds.
const (
	// KindSocrata is the Socrata open-data search API (SoQL over /resource/{id}.json).
	KindSocrata Kind = "socrata"
	// KindArcGIS is the ArcGIS FeatureServer query API.
	KindArcGIS Kind = "arcgis"
	// KindScrape marks a municipality with no structured API yet.
	KindScrape Kind = "scrape"
)

var cityKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Entry describes one municipal data source.
type Entry struct {
	// City is the registry key, a lowercase slug such as "san_francisco".
	City string `yaml:"city" json:"city"`

	// Name is the display name; it also fills Record.City when a row has none.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	Kind     Kind   `yaml:"kind" json:"kind"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// Dataset is the Socrata four-by-four resource identifier.
	Dataset string `yaml:"dataset,omitempty" json:"dataset,omitempty"`

	// Layer is the ArcGIS FeatureServer layer index.
	Layer int `yaml:"layer,omitempty" json:"layer,omitempty"`

	// SearchFields are the ArcGIS attributes matched against the query.
	SearchFields []string `yaml:"search_fields,omitempty" json:"search_fields,omitempty"`

	OrderBy string `yaml:"order_by,omitempty" json:"order_by,omitempty"`
	Limit   int    `yaml:"limit,omitempty" json:"limit,omitempty"`

	// TrustScore is the static reliability weight in (0,1].
	TrustScore float64 `yaml:"trust_score" json:"trust_score"`

	Timeout    Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxRetries int      `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// AppTokenEnv names the environment variable holding an API token.
	AppTokenEnv string `yaml:"app_token_env,omitempty" json:"app_token_env,omitempty"`

	// Fields prepends source-specific raw names to the default candidate
	// chains, keyed by canonical field name.
	Fields map[string][]string `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// DisplayName returns Name, or a title-cased City key.
func (e Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return permits.CityName(strings.ReplaceAll(e.City, "_", " "))
}

// EffectiveTimeout returns the per-connector deadline.
func (e Entry) EffectiveTimeout(fallback time.Duration) time.Duration {
	d := e.Timeout.Std()
	if d <= 0 {
		d = fallback
	}
	if d <= 0 {
		d = constants.DefaultConnectorTimeout
	}
	return min(d, constants.MaxConnectorTimeout)
}

// EffectiveLimit returns the page size requested from the endpoint.
func (e Entry) EffectiveLimit() int {
	if e.Limit <= 0 {
		return constants.DefaultRecordLimit
	}
	return min(e.Limit, constants.MaxRecordLimit)
}

// FieldMap returns the default candidate chains with this entry's overrides
// tried first.
func (e Entry) FieldMap() (permits.FieldMap, error) {
	override := make(permits.FieldMap, len(e.Fields))
	for name, candidates := range e.Fields {
		f, err := permits.ParseField(name)
		if err != nil {
			return nil, errors.NewConfigError("registry", fmt.Sprintf("city %s: %v", e.City, err), err)
		}
		override[f] = candidates
	}
	return permits.DefaultFieldMap().Merge(override), nil
}

// Validate checks the entry in isolation.
func (e Entry) Validate() error {
	fail := func(format string, args ...any) error {
		msg := fmt.Sprintf(format, args...)
		if e.City != "" {
			msg = "city " + e.City + ": " + msg
		}
		return errors.NewConfigError("registry", msg, nil)
	}

	if !cityKeyPattern.MatchString(e.City) {
		return fail("invalid city key %q", e.City)
	}
	switch e.Kind {
	case KindSocrata:
		if e.Dataset == "" {
			return fail("socrata source requires a dataset")
		}
	case KindArcGIS:
	case KindScrape:
	default:
		return fail("unknown kind %q", e.Kind)
	}
	if e.Kind != KindScrape && e.Endpoint == "" {
		return fail("endpoint is required")
	}
	// A responding source must raise confidence above zero.
	if e.TrustScore <= 0 || e.TrustScore > 1 {
		return fail("trust_score %v outside (0,1]", e.TrustScore)
	}
	if e.MaxRetries < 0 || e.MaxRetries > constants.MaxRetries {
		return fail("max_retries %d outside [0,%d]", e.MaxRetries, constants.MaxRetries)
	}
	if e.Timeout < 0 {
		return fail("negative timeout")
	}
	if e.Layer < 0 {
		return fail("negative layer")
	}
	if _, err := e.FieldMap(); err != nil {
		return err
	}
	return nil
}
