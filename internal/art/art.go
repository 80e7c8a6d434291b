// ABOUTME: Cover art lookup and thumbnail generation for items
// ABOUTME: Scales and re-encodes images per client, with a TTL cache per variant
package art

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/FloatTech/ttl"
	"github.com/charmbracelet/log"
)

var (
	indicators = []string{"front", "album", "cover", "folder", "art"}
	extensions = []string{"png", "jpeg", "jpg", "gif"}

	// Matching is tried in three passes of decreasing confidence: an exact
	// indicator file name, an indicator anywhere in the name, any image at all.
	patternsExact  []*regexp.Regexp
	patternsLoose  []*regexp.Regexp
	patternsAnyImg []*regexp.Regexp
)

func init() {
	for _, ind := range indicators {
		for _, ext := range extensions {
			patternsExact = append(patternsExact,
				regexp.MustCompile(`(?i)^`+ind+`\.`+ext+`$`))
			patternsLoose = append(patternsLoose,
				regexp.MustCompile(`(?i)^.*`+ind+`.*\.`+ext+`$`))
		}
	}
	for _, ext := range extensions {
		patternsAnyImg = append(patternsAnyImg,
			regexp.MustCompile(`(?i)^.*\.`+ext+`$`))
	}
}

// resourcePath turns a file URI or plain path into a local path, or "" when
// the resource is not local.
func resourcePath(resource string) string {
	if strings.HasPrefix(resource, "file://") {
		u, err := url.Parse(resource)
		if err != nil {
			return ""
		}
		if p, err := url.PathUnescape(u.Path); err == nil {
			return p
		}
		return u.Path
	}
	if strings.Contains(resource, "://") {
		return ""
	}
	return resource
}

// findInFolder returns the most plausible art file in a folder, or "".
func findInFolder(folder string) string {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return ""
	}
	for _, patterns := range [][]*regexp.Regexp{patternsExact, patternsLoose, patternsAnyImg} {
		for _, re := range patterns {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if re.MatchString(e.Name()) {
					return filepath.Join(folder, e.Name())
				}
			}
		}
	}
	return ""
}

// thumbnailFile looks for a freedesktop thumbnail of the resource URI.
func thumbnailFile(resource string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	uri := resource
	if !strings.Contains(uri, "://") {
		uri = "file://" + uri
	}
	sum := fmt.Sprintf("%x", md5.Sum([]byte(uri)))
	for _, size := range []string{"large", "normal"} {
		p := filepath.Join(home, ".thumbnails", size, sum+".png")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindImageFile locates an art image for the given item resource: the
// resource itself if it is an image, otherwise art in its folder, otherwise a
// desktop thumbnail. Returns "" when nothing is found.
func FindImageFile(resource string) string {
	path := resourcePath(resource)
	if path == "" {
		return ""
	}

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		lower := strings.ToLower(path)
		for _, ext := range extensions {
			if strings.HasSuffix(lower, "."+ext) {
				return path
			}
		}
		if found := findInFolder(filepath.Dir(path)); found != "" {
			return found
		}
	} else if err == nil {
		if found := findInFolder(path); found != "" {
			return found
		}
	}

	return thumbnailFile(path)
}

type variant struct {
	source  string
	size    int32
	imgType string
}

// Provider produces client-sized art thumbnails. Results, including the
// negative "no art" result, are cached per (source, size, type) for a while
// since items repeat a lot while browsing.
type Provider struct {
	cache *ttl.Cache[variant, []byte]
}

// NewProvider creates a provider with a five minute result cache.
func NewProvider() *Provider {
	return &Provider{cache: ttl.NewCache[variant, []byte](5 * time.Minute)}
}

// Thumbnail returns the encoded image for an item resource, scaled to fit
// size and encoded as imgType (PNG or JPEG, anything else means JPEG).
// Returns nil when there is no art or the client does not want images.
func (p *Provider) Thumbnail(resource string, size int32, imgType string) []byte {
	if resource == "" || size <= 0 {
		return nil
	}

	v := variant{source: resource, size: size, imgType: strings.ToUpper(imgType)}
	if data := p.cache.Get(v); data != nil {
		if len(data) == 0 {
			return nil
		}
		return data
	}

	data := render(resource, size, v.imgType)
	if data == nil {
		// Negative results are worth caching too.
		p.cache.Set(v, []byte{})
		return nil
	}
	p.cache.Set(v, data)
	return data
}

func render(resource string, size int32, imgType string) []byte {
	file := FindImageFile(resource)
	if file == "" {
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		log.Debug("cannot open art file", "file", file, "err", err)
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Debug("cannot decode art file", "file", file, "err", err)
		return nil
	}

	img = scaleToFit(img, int(size))

	var buf bytes.Buffer
	if imgType == "PNG" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75})
	}
	if err != nil {
		log.Debug("cannot encode art", "file", file, "err", err)
		return nil
	}
	return buf.Bytes()
}

// scaleToFit shrinks img so both dimensions fit within max, keeping the
// aspect ratio. Images already small enough pass through untouched.
func scaleToFit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	tw, th := max, max
	if w > h {
		th = h * max / w
	} else {
		tw = w * max / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	for y := 0; y < th; y++ {
		sy := b.Min.Y + y*h/th
		for x := 0; x < tw; x++ {
			sx := b.Min.X + x*w/tw
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}
