package domain

import "strings"

// UploadKind selects the bucket prefix an image is stored under.
type UploadKind string

const (
	UploadApplicantID UploadKind = "pictures"
	UploadCoach       UploadKind = "coach"
	UploadPackage     UploadKind = "package"
)

// ParseUploadKind maps the route segment to a kind.
func ParseUploadKind(s string) (UploadKind, bool) {
	switch UploadKind(strings.ToLower(s)) {
	case UploadApplicantID:
		return UploadApplicantID, true
	case UploadCoach:
		return UploadCoach, true
	case UploadPackage:
		return UploadPackage, true
	}
	return "", false
}

// Prefix is the object key prefix; package images live at the bucket root.
func (k UploadKind) Prefix() string {
	switch k {
	case UploadApplicantID:
		return "pictures/"
	case UploadCoach:
		return "coach/"
	default:
		return ""
	}
}

// AllowedImageTypes are the content types accepted for any upload kind.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}
