package cloudinary

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
)

// Optimized image params for fast dashboard loading
const (
	ImageQuality     = "auto"
	ImageFetchFormat = "auto"
	ImageCrop        = "fill"
	ThumbWidth       = 200
)

var (
	versionSegment   = regexp.MustCompile(`^v\d+$`)
	transformSegment = regexp.MustCompile(`^[a-z]{1,3}_[^,]+(,[a-z]{1,3}_[^,]+)*$`)
)

// Thumbnailer turns report photo references into small optimized image URLs.
// A reference is either a Cloudinary public ID or a full URL; URLs outside
// Cloudinary are returned as-is.
type Thumbnailer struct {
	cloudName string
	size      int
	cld       *cld.Cloudinary
}

func NewThumbnailer(cloudName, apiKey, apiSecret string, size int) (*Thumbnailer, error) {
	if cloudName == "" {
		return nil, fmt.Errorf("cloudinary: cloud name is required")
	}
	if size <= 0 {
		size = ThumbWidth
	}
	c, err := cld.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &Thumbnailer{cloudName: cloudName, size: size, cld: c}, nil
}

// Thumbnails maps every reference through Thumbnail. nil in, nil out.
func (t *Thumbnailer) Thumbnails(refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, t.Thumbnail(ref))
		}
	}
	return out
}

func (t *Thumbnailer) Thumbnail(ref string) string {
	publicID, ok := t.publicID(ref)
	if !ok {
		return ref
	}
	img, err := t.cld.Image(publicID)
	if err != nil {
		return BuildOptimizedImageURL(t.cloudName, publicID, t.size)
	}
	img.Transformation = fmt.Sprintf("c_%s,w_%d,h_%d,q_%s,f_%s", ImageCrop, t.size, t.size, ImageQuality, ImageFetchFormat)
	u, err := img.String()
	if err != nil || u == "" {
		return BuildOptimizedImageURL(t.cloudName, publicID, t.size)
	}
	return u
}

// publicID extracts the public ID from a reference. Plain IDs pass through;
// delivery URLs of this cloud are parsed; any other URL is rejected.
func (t *Thumbnailer) publicID(ref string) (string, bool) {
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/"), true
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != "res.cloudinary.com" {
		return "", false
	}
	prefix := "/" + t.cloudName + "/image/upload/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	segs := strings.Split(strings.TrimPrefix(u.Path, prefix), "/")
	for len(segs) > 1 && (versionSegment.MatchString(segs[0]) || transformSegment.MatchString(segs[0])) {
		segs = segs[1:]
	}
	id := strings.Join(segs, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	return id, id != ""
}

// BuildOptimizedImageURL returns a Cloudinary URL with transformations for optimized delivery.
func BuildOptimizedImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ThumbWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}
