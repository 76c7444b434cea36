//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, URL, and timestamp).
//  These structs are inert.  They contain no pointers to connections or
//  large buffers, so they are safe to log or JSON-encode.
//
//  Consumers: the login audit line in components/auth, the profile page's
//  "current device" line, and the debug module.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string `json:"raw"`
	Browser     string `json:"browser"`      // "Chrome", "Firefox", "Safari", etc.
	Version     string `json:"version"`      // "124.0.6367"
	OS          string `json:"os"`           // "MacOSX", "Windows", "Android", "iOS", etc.
	OSVersion   string `json:"os_version"`   // "14.5", "11", "10"
	Device      string `json:"device"`       // "Desktop", "Mobile", "Tablet", or "Other"
	Platform    string `json:"platform"`     // "Mac", "Windows", "Linux", "iPad", ...
	IsBot       bool   `json:"is_bot"`       // crawler signature matched
	PrimaryLang string `json:"primary_lang"` // first tag from Accept-Language
}

// Geo holds IP-based geolocation hints.
// These are best-effort and may be empty if the DB has no match.
type Geo struct {
	IP         net.IP `json:"ip"`
	CountryISO string `json:"country_iso,omitempty"`
	City       string `json:"city,omitempty"`
}

// RequestInfo is attached to the request context by Enrich.
type RequestInfo struct {
	UA        UA        `json:"ua"`
	Geo       Geo       `json:"geo"`
	URL       *url.URL  `json:"-"` // pointer copy, read-only
	Timestamp time.Time `json:"timestamp"`
}

// Summary renders "Chrome 124 on MacOSX (Desktop)" for logs and pages.
func (ri *RequestInfo) Summary() string {
	if ri == nil || ri.UA.Browser == "" {
		return "unknown device"
	}
	b := ri.UA.Browser
	if ri.UA.Version != "" {
		b += " " + strings.SplitN(ri.UA.Version, ".", 2)[0]
	}
	return fmt.Sprintf("%s on %s (%s)", b, ri.UA.OS, ri.UA.Device)
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is a singleton MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.
var geoReader atomic.Pointer[geoip2.Reader]

// InitGeo opens the GeoLite2-City database.  Without it Geo carries only
// the IP.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	if old := geoReader.Swap(r); old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the database, if open.
func CloseGeo() {
	if r := geoReader.Swap(nil); r != nil {
		_ = r.Close()
	}
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(uaHeader, acceptLang string) UA {
	u := surfer.Parse(uaHeader)

	info := UA{
		Raw:         uaHeader,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     versionToString(u.Browser.Version),
		OS:          strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion:   versionToString(u.OS.Version),
		Platform:    strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(v.Major)
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// lookupGeo returns best-effort Geo data using the global reader.
func lookupGeo(ip net.IP) Geo {
	r := geoReader.Load()
	if r == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := r.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
