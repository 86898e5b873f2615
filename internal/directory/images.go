package directory

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/Ultrahd-dev/timetable-engine/internal/links"
)

var (
	// assetRe адреса картинок в CSS или HTML
	assetRe = regexp.MustCompile(`[^\s"'()<>,]+\.(?:png|svg|jpe?g|gif|webp)`)

	logoNameRe  = regexp.MustCompile(`^logo_(.+?)(_bw)?-[0-9a-f]{6,}\.(?:png|svg|jpe?g|gif|webp)$`)
	photoNameRe = regexp.MustCompile(`^(.+?)-[0-9a-f]{6,}\.(?:png|jpe?g|webp)$`)
)

const logoDir = "faculties_logo/"

// ParseLogos ищет в таблице стилей логотипы факультетов вида
// logo_{slug}[_bw]-{hash}.{ext}. Цветной вариант важнее черно-белого,
// при равенстве - лежащий в faculties_logo/.
func ParseLogos(css string, base *url.URL) map[string]string {
	type candidate struct {
		url   string
		score int
	}
	best := make(map[string]candidate)

	for _, raw := range assetRe.FindAllString(css, -1) {
		m := logoNameRe.FindStringSubmatch(path.Base(raw))
		if m == nil {
			continue
		}
		abs, ok := links.Resolve(base, raw)
		if !ok {
			continue
		}

		score := 0
		if m[2] == "" {
			score += 2
		}
		if strings.Contains(raw, logoDir) {
			score++
		}
		if cur, exists := best[m[1]]; !exists || score > cur.score {
			best[m[1]] = candidate{url: abs, score: score}
		}
	}

	logos := make(map[string]string, len(best))
	for slug, c := range best {
		logos[slug] = c.url
	}
	return logos
}

// ParsePhotos ищет на странице фотографии факультетов вида {slug}-{hash}.{ext}
// в каталоге faculties. Берется первое вхождение.
func ParsePhotos(html string, base *url.URL) map[string]string {
	photos := make(map[string]string)

	for _, raw := range assetRe.FindAllString(html, -1) {
		if !underFacultiesDir(raw) {
			continue
		}
		m := photoNameRe.FindStringSubmatch(path.Base(raw))
		if m == nil {
			continue
		}
		if _, exists := photos[m[1]]; exists {
			continue
		}
		abs, ok := links.Resolve(base, raw)
		if !ok {
			continue
		}
		photos[m[1]] = abs
	}
	return photos
}

func underFacultiesDir(raw string) bool {
	for _, segment := range strings.Split(path.Dir(raw), "/") {
		if segment == "faculties" {
			return true
		}
	}
	return false
}

// MergeImages проставляет ImageURL: фото, иначе логотип, иначе nil
func MergeImages(faculties []FacultyOption, logos, photos map[string]string) []FacultyOption {
	merged := make([]FacultyOption, len(faculties))
	for i, f := range faculties {
		f.ImageURL = nil
		if photo, ok := photos[f.Slug]; ok {
			f.ImageURL = &photo
		} else if logo, ok := logos[f.Slug]; ok {
			f.ImageURL = &logo
		}
		merged[i] = f
	}
	return merged
}
