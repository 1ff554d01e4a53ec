package supervisor

import (
	"regexp"
	"strings"

	"github.com/JaimeStill/slate/internal/script"
)

// Clearance alert kinds.
const (
	ClearanceCelebrity = "celebrity"
	ClearanceBrand     = "brand"
	ClearanceMusic     = "music"
)

// ClearanceAlert is a legal clearance the production office must obtain
// before a scene is shot.
type ClearanceAlert struct {
	Kind     string   `json:"kind"`
	Entity   string   `json:"entity"`
	SceneID  string   `json:"scene_id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type clearanceTerm struct {
	kind     string
	entity   string
	severity Severity
	message  string
	pattern  *regexp.Regexp
}

type clearanceGroup struct {
	kind     string
	severity Severity
	message  string
	names    []string
}

var clearanceTerms = compileClearances([]clearanceGroup{
	{
		kind:     ClearanceCelebrity,
		severity: SeverityMedium,
		message:  "real person named in the script; legal review required",
		names: []string{
			"عمرو دياب", "تامر حسني", "محمد منير", "أنغام", "شيرين",
			"عمرو مصطفى", "حميد الشاعري", "أسامة أنور عكاشة", "يوسف شاهين",
		},
	},
	{
		kind:     ClearanceBrand,
		severity: SeverityMedium,
		message:  "trademark appears on screen; confirm usage rights",
		names: []string{
			"آيفون", "iPhone", "سامسونج", "Samsung", "مرسيدس", "Mercedes",
			"بي إم دبليو", "BMW", "فيسبوك", "Facebook", "واتساب", "WhatsApp",
			"تويتر", "Twitter", "إنستجرام", "Instagram", "Coca-Cola", "Pepsi",
		},
	},
	{
		kind:     ClearanceMusic,
		severity: SeverityHigh,
		message:  "recorded song is played; license performance rights",
		names: []string{
			"بعدت ليه", "تملي معاك", "قلبي اختارك", "معاك قلبي", "أنا ليلة", "نور العين",
		},
	},
})

// musicCues mark generic music in a scene when no specific song is named.
var musicCues = regexp.MustCompile(`(?i)\b(sings?|singing|song|music)\b|يغني|تغني|أغنية|اغنية|موسيقى|كاسيت`)

func compileClearances(groups []clearanceGroup) []clearanceTerm {
	var terms []clearanceTerm
	for _, g := range groups {
		for _, name := range g.names {
			q := strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`)
			if isASCII(name) {
				q = `(?i)\b` + q + `\b`
			}
			terms = append(terms, clearanceTerm{
				kind:     g.kind,
				entity:   name,
				severity: g.severity,
				message:  g.message,
				pattern:  regexp.MustCompile(q),
			})
		}
	}
	return terms
}

// ScanClearances reports celebrity, brand, and music clearances per scene.
// A scene with music but no named song gets one generic music alert.
func ScanClearances(scenes []script.Scene) []ClearanceAlert {
	alerts := []ClearanceAlert{}
	for _, s := range scenes {
		music := false
		for _, t := range clearanceTerms {
			if !t.pattern.MatchString(s.Content) {
				continue
			}
			music = music || t.kind == ClearanceMusic
			alerts = append(alerts, ClearanceAlert{
				Kind:     t.kind,
				Entity:   t.entity,
				SceneID:  s.ID,
				Severity: t.severity,
				Message:  t.message,
			})
		}
		if !music && musicCues.MatchString(s.Content) {
			alerts = append(alerts, ClearanceAlert{
				Kind:     ClearanceMusic,
				Entity:   "music",
				SceneID:  s.ID,
				Severity: SeverityMedium,
				Message:  "scene contains music; confirm performance rights",
			})
		}
	}
	return alerts
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
