package catalog

// AuthType enumerates the supported authentication schemes for outbound
// calls. Descriptors declaring anything else are rejected at load time.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apikey"
	AuthBasic  AuthType = "basic"
	AuthHMAC   AuthType = "hmac"
	AuthOAuth2 AuthType = "oauth2"
)

// AuthConfig is the authentication block of a service descriptor. Secret
// values may reference environment variables with ${VAR} syntax; they are
// expanded at load time.
type AuthConfig struct {
	Type AuthType `json:"type"`

	// bearer
	Token string `json:"token,omitempty"`
	// RefreshURL, when set with bearer auth, enables the single
	// 401-refresh-retry cycle against the delegated identity service.
	RefreshURL string `json:"refreshUrl,omitempty"`

	// apikey
	Key string `json:"key,omitempty"`
	// Header names the header carrying the key; QueryParam names a query
	// parameter instead. Exactly one should be set; Header wins when both
	// are.
	Header     string `json:"header,omitempty"`
	QueryParam string `json:"queryParam,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// hmac
	Secret string `json:"secret,omitempty"`
	// Algorithm is "sha256" (default) or "sha512".
	Algorithm string `json:"algorithm,omitempty"`
	// SignatureHeader defaults to "X-Signature"; TimestampHeader to
	// "X-Timestamp".
	SignatureHeader string `json:"signatureHeader,omitempty"`
	TimestampHeader string `json:"timestampHeader,omitempty"`

	// oauth2 (client credentials against TokenURL)
	TokenURL     string   `json:"tokenUrl,omitempty"`
	ClientID     string   `json:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`

	// RefreshWindowSeconds is how long before expiry a token is considered
	// stale. Defaults to 60.
	RefreshWindowSeconds int `json:"refreshWindowSeconds,omitempty"`
}

// Endpoint describes one operation of an external service. Paths may contain
// {placeholder} segments bound from call arguments.
type Endpoint struct {
	Name        string                 `json:"name"`
	Method      string                 `json:"method"`
	Path        string                 `json:"path"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Responses   map[string]interface{} `json:"responses,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
}

// ComplianceFlags declares which regulations apply to a service. The
// compliance pipeline keys its validators and data filters off these.
type ComplianceFlags struct {
	PCI   bool `json:"pci"`
	GDPR  bool `json:"gdpr"`
	PSD2  bool `json:"psd2"`
	SOX   bool `json:"sox"`
	HIPAA bool `json:"hipaa"`
}

// ServiceDescriptor is the immutable record describing one external service.
// Loaded at startup from the catalog and referenced by name throughout.
type ServiceDescriptor struct {
	Name           string                 `json:"name"`
	BaseURL        string                 `json:"baseUrl"`
	Authentication AuthConfig             `json:"authentication"`
	Endpoints      []Endpoint             `json:"endpoints,omitempty"`
	Capabilities   []string               `json:"capabilities,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Compliance     ComplianceFlags        `json:"compliance"`

	// TimeoutSeconds, RetryAttempts, RetryDelayMs override the HTTP client
	// defaults (30s / 3 / 500ms) when non-zero.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
	RetryAttempts  int `json:"retryAttempts,omitempty"`
	RetryDelayMs   int `json:"retryDelayMs,omitempty"`
}

// Category returns the adapter category declared in metadata, or "general".
func (d *ServiceDescriptor) Category() string {
	if d.Metadata != nil {
		if c, ok := d.Metadata["category"].(string); ok && c != "" {
			return c
		}
	}
	return "general"
}

// MetadataStrings returns a []string metadata value (e.g. "countries",
// "currencies"), tolerating both []string and []interface{} JSON decodings.
func (d *ServiceDescriptor) MetadataStrings(key string) []string {
	if d.Metadata == nil {
		return nil
	}
	switch v := d.Metadata[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// CatalogFile is the root of catalog.json: the list of service config files
// to load.
type CatalogFile struct {
	Services []CatalogEntry `json:"services"`
}

// CatalogEntry points at one service descriptor file.
type CatalogEntry struct {
	Name       string `json:"name"`
	Directory  string `json:"directory,omitempty"`
	ConfigFile string `json:"configFile"`
}
