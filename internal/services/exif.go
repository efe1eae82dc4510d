package services

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/yungbote/dormguard-backend/internal/pkg/logger"
)

const earthRadiusM = 6371000.0

// editingSoftware is the deny-list of photo editors. A Software tag
// containing any of these marks the photo as edited.
var editingSoftware = []string{
	"photoshop", "gimp", "lightroom", "snapseed", "vsco", "afterlight",
	"picsart", "facetune", "meitu", "beautyplus", "faceapp", "snow",
	"b612", "foodie", "ulike",
}

// PhotoMeta is what forensics could read out of a photo. Nil fields mean the
// tag was absent; absent tags never fail validation.
type PhotoMeta struct {
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
	Software   string
}

// ForensicParams are the policy knobs for one validation pass.
type ForensicParams struct {
	// TimeToleranceMin bounds how old a capture timestamp may be, in
	// minutes. 0 disables the capture-time check entirely.
	TimeToleranceMin int
	GPSEnabled       bool
	Latitude         *float64
	Longitude        *float64
	RadiusM          float64
}

type ForensicResult struct {
	Valid    bool
	Messages []string
}

func (r ForensicResult) Message() string {
	return strings.Join(r.Messages, "; ")
}

type ExifService interface {
	Extract(data []byte) *PhotoMeta
	Validate(meta *PhotoMeta, now time.Time, params ForensicParams) ForensicResult
}

type exifService struct {
	log *logger.Logger
}

func NewExifService(log *logger.Logger) ExifService {
	return &exifService{log: log.With("service", "ExifService")}
}

// Extract never returns an error: a photo without parsable metadata is
// treated as a photo without tags.
func (s *exifService) Extract(data []byte) *PhotoMeta {
	meta := &PhotoMeta{}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		s.log.Debug("No parsable EXIF block", "error", err)
		return meta
	}

	if tm, err := x.DateTime(); err == nil {
		meta.CapturedAt = &tm
	}
	if lat, lng, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lng
	}
	if tag, err := x.Get(exif.Software); err == nil {
		if sw, err := tag.StringVal(); err == nil {
			meta.Software = strings.TrimSpace(sw)
		}
	}
	return meta
}

func (s *exifService) Validate(meta *PhotoMeta, now time.Time, params ForensicParams) ForensicResult {
	out := ForensicResult{Valid: true}
	if meta == nil {
		return out
	}

	if meta.CapturedAt != nil && params.TimeToleranceMin > 0 {
		diff := now.Sub(*meta.CapturedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff > time.Duration(params.TimeToleranceMin)*time.Minute {
			out.Valid = false
			out.Messages = append(out.Messages, fmt.Sprintf(
				"photo captured %d minutes from submission, allowed %d",
				int(diff.Minutes()), params.TimeToleranceMin))
		}
	}

	if params.GPSEnabled && params.Latitude != nil && params.Longitude != nil &&
		meta.Latitude != nil && meta.Longitude != nil {
		dist := haversineMeters(*params.Latitude, *params.Longitude, *meta.Latitude, *meta.Longitude)
		if dist > params.RadiusM {
			out.Valid = false
			out.Messages = append(out.Messages, fmt.Sprintf(
				"photo taken %.0fm from the dormitory, allowed %.0fm", dist, params.RadiusM))
		}
	}

	if meta.Software != "" {
		sw := strings.ToLower(meta.Software)
		for _, editor := range editingSoftware {
			if strings.Contains(sw, editor) {
				out.Valid = false
				out.Messages = append(out.Messages, fmt.Sprintf("photo processed with editing software (%s)", meta.Software))
				break
			}
		}
	}

	return out
}

func haversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
