package classify

import (
	"slices"

	"github.com/JaimeStill/slate/internal/elements"
)

// Exclusion demotes or reroutes a keyword hit when its pattern appears in
// the surrounding sentence. A non-empty Redirect moves the hit to another
// category; otherwise Penalty is subtracted from its confidence. When
// Keywords is set the exclusion only applies to those keywords.
type Exclusion struct {
	Pattern  string            `toml:"pattern"`
	Keywords []string          `toml:"keywords"`
	Redirect elements.Category `toml:"redirect"`
	Penalty  float64           `toml:"penalty"`
	Reason   string            `toml:"reason"`
}

// Rule is one row of the classification table. Priority orders categories
// from 1 (strongest) to 21 and breaks ties between overlapping hits.
type Rule struct {
	Category       elements.Category `toml:"category"`
	Priority       int               `toml:"priority"`
	BaseConfidence float64           `toml:"base_confidence"`
	Threshold      float64           `toml:"threshold"`
	Keywords       []string          `toml:"keywords"`
	Context        []string          `toml:"context"`
	Exclusions     []Exclusion       `toml:"exclusions"`
}

const (
	backgroundPattern = `(?i)\b(on the (table|shelf|wall|desk|counter|floor|mantel)|in the background|sits? (on|at|behind|beside)|lies on|rests? on|hangs? on|decorat\w*)\b|على الطاولة|على الرف|على الحائط|في الخلفية|ديكور|يجلس على|يجلس أمام|يجلس خلف|بجوار`
	backgroundReason  = "mentioned as part of the set rather than handled"
)

var defaultRules = []Rule{
	{
		Category:       elements.Cast,
		Priority:       1,
		BaseConfidence: 0.75,
		Threshold:      0.5,
		Context:        []string{`(?i)\b(says|said|asks|replies|shouts|whispers|yells)\b|يقول|يصرخ|يهمس|يسأل`},
	},
	{
		Category:       elements.Stunts,
		Priority:       2,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"fight", "punch", "kick", "tackle", "brawl", "stunt", "car chase", "chase", "leap", "jump", "fall", "crash",
			"قتال", "شجار", "عراك", "مطاردة", "يقفز", "يسقط", "يضرب",
		},
		Context: []string{`(?i)\b(violently|hard|off the|from the roof|through the window|lands?|slams?)\b|بعنف|من السطح`},
	},
	{
		Category:       elements.SpecialMakeup,
		Priority:       3,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"prosthetic", "wound", "scar", "bruise", "blood", "gore", "burn marks", "aging makeup", "bullet wound",
			"جرح", "ندبة", "كدمة", "دماء", "حروق",
		},
		Context: []string{`(?i)\b(bleeding|bloody|gash\w*|oozing|deep|fresh|swollen)\b|ينزف|غائر|متورم`},
	},
	{
		Category:       elements.PracticalFX,
		Priority:       4,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"explosion", "fire", "smoke", "rain", "snow", "fog", "sparks", "squib", "flames", "wind machine",
			"انفجار", "حريق", "نار", "دخان", "مطر", "ثلج", "ضباب",
		},
		Context: []string{`(?i)\b(erupts?|bursts?|billow\w*|pours?|pouring|burning|blazing|hammers?)\b|يشتعل|يتصاعد|ينهمر`},
		Exclusions: []Exclusion{
			{
				Pattern:  `(?i)\b(cgi|digital\w*|vfx|green ?screen|computer[- ]generated)\b|رقمي|مؤثرات بصرية`,
				Redirect: elements.VisualFX,
				Reason:   "effect is produced in post rather than on set",
			},
		},
	},
	{
		Category:       elements.VisualFX,
		Priority:       5,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"cgi", "hologram", "green screen", "teleport", "spaceship", "portal", "force field", "superimposed",
			"هولوجرام", "مؤثرات بصرية", "بوابة سحرية",
		},
		Context: []string{`(?i)\b(glow\w*|shimmer\w*|materializ\w*|vanish\w*|morph\w*)\b|يتوهج|يختفي`},
	},
	{
		Category:       elements.Vehicles,
		Priority:       6,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"police car", "car", "truck", "bus", "taxi", "motorcycle", "bicycle", "van", "ambulance", "helicopter", "boat", "train", "jeep", "wheelchair",
			"سيارة", "شاحنة", "حافلة", "تاكسي", "دراجة", "إسعاف", "قارب", "قطار", "كرسي متحرك",
		},
		Context: []string{`(?i)\b(drives?|driving|parks?|parked|speeds?|honks?|engine|pulls up)\b|يقود|تقف|محرك`},
		Exclusions: []Exclusion{
			{
				Pattern:  `(?i)\b(patient|hospital|nurse|injured|disabled|medical|clinic)\b|مريض|مستشفى|ممرض|مصاب`,
				Keywords: []string{"wheelchair", "كرسي متحرك"},
				Redirect: elements.InteractiveProps,
				Reason:   "wheelchair used as a medical prop",
			},
		},
	},
	{
		Category:       elements.AnimalHandling,
		Priority:       7,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"dog", "cat", "horse", "bird", "parrot", "snake", "monkey", "falcon", "puppy", "camel",
			"كلب", "قطة", "حصان", "ببغاء", "ثعبان", "قرد", "صقر", "جمل",
		},
		Context: []string{`(?i)\b(barks?|leash|rides?|riding|trained|pets?|meows?)\b|ينبح|يمتطي|مقود`},
		Exclusions: []Exclusion{
			{
				Pattern:  `(?i)\b(herd|flock|drove|caravan)\b|قطيع|قافلة`,
				Redirect: elements.Livestock,
				Reason:   "animals appear as a herd",
			},
		},
	},
	{
		Category:       elements.Livestock,
		Priority:       8,
		BaseConfidence: 0.6,
		Threshold:      0.5,
		Keywords: []string{
			"cattle", "cow", "sheep", "goat", "chicken", "pig", "herd", "flock", "livestock",
			"أبقار", "أغنام", "ماعز", "دجاج", "ماشية", "قطيع",
		},
		Context: []string{`(?i)\b(graz\w*|pasture|barn|farm|field)\b|مرعى|حظيرة|مزرعة`},
	},
	{
		Category:       elements.InteractiveProps,
		Priority:       9,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"telephone", "phone", "laptop", "computer", "typewriter", "remote", "camera", "television", "tv", "radio", "door", "lock", "elevator",
			"هاتف", "جوال", "حاسوب", "كمبيوتر", "كاميرا", "تلفاز", "راديو", "باب", "مصعد",
		},
		Context: []string{`(?i)\b(dials?|types?|typing|opens?|unlocks?|switch\w* on|turns? on|presses|rings?|ringing|answers?|plugs? in)\b|يفتح|يتصل|يكتب|يشغل|يرن`},
		Exclusions: []Exclusion{
			{Pattern: backgroundPattern, Redirect: elements.SetDressing, Reason: backgroundReason},
		},
	},
	{
		Category:       elements.HandheldProps,
		Priority:       10,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"coffee cup", "cup", "mug", "glass", "bottle", "wine", "book", "pen", "letter", "envelope", "gun", "pistol", "knife", "sword",
			"briefcase", "bag", "wallet", "cigarette", "lighter", "newspaper", "umbrella", "flashlight", "photograph", "photo", "notebook", "map", "keys", "tray",
			"فنجان", "كوب", "زجاجة", "كتاب", "قلم", "رسالة", "ظرف", "مسدس", "سكين", "سيف", "حقيبة", "محفظة", "سيجارة", "ولاعة", "جريدة", "مظلة", "دفتر", "خريطة", "كأس",
		},
		Context: []string{`(?i)\b(picks? up|holds?|holding|grabs?|carr(y|ies|ying)|hands? (him|her|them|it|over)|pours?|drinks?|sips?|reads?|writes?|points?|waves?|lifts?|takes?|puts? down|draws?|opens?)\b|يمسك|يحمل|يلتقط|يشرب|يقرأ|يكتب|يأخذ|يرفع|يضع`},
		Exclusions: []Exclusion{
			{Pattern: backgroundPattern, Redirect: elements.SetDressing, Reason: backgroundReason},
		},
	},
	{
		Category:       elements.Wardrobe,
		Priority:       11,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"dress", "suit", "jacket", "coat", "uniform", "hat", "shirt", "scarf", "glove", "boot", "shoe", "costume", "hijab", "abaya", "thobe", "robe", "veil",
			"فستان", "بدلة", "سترة", "معطف", "قبعة", "قميص", "وشاح", "حذاء", "عباية", "ثوب", "حجاب", "جلابية", "عمامة",
		},
		Context: []string{`(?i)\b(wears?|wearing|dressed|puts? on|takes? off|buttons?|zips?)\b|يرتدي|ترتدي|يلبس|تلبس`},
	},
	{
		Category:       elements.MakeupHair,
		Priority:       12,
		BaseConfidence: 0.5,
		Threshold:      0.45,
		Keywords: []string{
			"makeup", "lipstick", "mascara", "hair", "beard", "mustache", "wig", "braid", "ponytail",
			"مكياج", "أحمر شفاه", "لحية", "شارب", "باروكة", "ضفيرة",
		},
		Context: []string{`(?i)\b(applies|combs?|brushes|styled|messy|shaved|unkempt)\b|تضع|يمشط|مصفف`},
	},
	{
		Category:       elements.Security,
		Priority:       13,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"bodyguard", "security guard", "guard", "police officer", "soldier",
			"حارس", "شرطي", "جندي", "رجال الأمن",
		},
		Context: []string{`(?i)\b(patrols?|stands? watch|armed|blocks? the)\b|يحرس|مسلح`},
	},
	{
		Category:       elements.SpecialEquipment,
		Priority:       14,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"crane shot", "crane", "drone", "steadicam", "underwater camera", "dolly", "rain tower", "harness", "rig",
			"رافعة", "طائرة مسيرة", "حزام أمان",
		},
		Context: []string{`(?i)\b(aerial|overhead|tracking|rises above)\b|من الأعلى|لقطة جوية`},
	},
	{
		Category:       elements.ExtrasFeatured,
		Priority:       15,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"waiter", "waitress", "bartender", "nurse", "doctor", "taxi driver", "shopkeeper", "receptionist", "vendor", "cashier",
			"نادل", "ممرضة", "طبيب", "بائع", "موظف استقبال", "سائق",
		},
		Context: []string{`(?i)\b(serves?|approaches|nods|greets?|brings?)\b|يقدم|يقترب|يحيي`},
	},
	{
		Category:       elements.ExtrasAmbient,
		Priority:       16,
		BaseConfidence: 0.5,
		Threshold:      0.45,
		Keywords: []string{
			"crowd", "passersby", "pedestrians", "people", "customers", "students", "audience", "diners", "shoppers", "commuters",
			"حشد", "جمهور", "المارة", "زبائن", "طلاب", "الناس",
		},
		Context: []string{`(?i)\b(bustl\w*|crowded|packed|background|mill\w* about)\b|مزدحم|يعج`},
	},
	{
		Category:       elements.Greenery,
		Priority:       17,
		BaseConfidence: 0.6,
		Threshold:      0.35,
		Keywords: []string{
			"tree", "plant", "flower", "rose", "tulip", "grass", "bush", "palm", "vine", "hedge", "bouquet",
			"شجرة", "أشجار", "نبات", "زهور", "ورد", "عشب", "نخلة",
		},
		Context: []string{`(?i)\b(fresh|bloom\w*|growing|lush|wild|wilted|water(s|ed|ing)?)\b|نضرة|متفتحة|يسقي`},
		Exclusions: []Exclusion{
			{
				Pattern: `(?i)\b(artificial|plastic|fake|silk|decorative)\b|صناعي|صناعية|بلاستيك|مزيف`,
				Penalty: 0.2,
				Reason:  "greenery described as artificial or decorative",
			},
		},
	},
	{
		Category:       elements.SetDressing,
		Priority:       18,
		BaseConfidence: 0.5,
		Threshold:      0.45,
		Keywords: []string{
			"bookshelf", "table", "chair", "sofa", "couch", "desk", "bed", "lamp", "painting", "curtain", "shelf", "rug", "carpet", "vase", "mirror", "clock", "counter", "furniture", "cabinet", "fireplace",
			"طاولة", "كرسي", "أريكة", "سرير", "مصباح", "لوحة", "ستائر", "سجادة", "مزهرية", "مرآة", "ساعة حائط", "أثاث", "خزانة",
		},
		Context: []string{`(?i)\b(decorated|furnished|corner|against the wall|in the room|cluttered)\b|ديكور|أثاث|في الزاوية`},
	},
	{
		Category:       elements.SoundMusic,
		Priority:       19,
		BaseConfidence: 0.55,
		Threshold:      0.5,
		Keywords: []string{
			"music", "song", "piano", "guitar", "drums", "orchestra", "soundtrack", "gunshot", "siren", "singing",
			"موسيقى", "أغنية", "بيانو", "عود", "طبول", "صفارة إنذار",
		},
		Context: []string{`(?i)\b(plays?|playing|hums?|sings?|blares?|loud|echo\w*)\b|يعزف|تعزف|يغني|تصدح`},
	},
	{
		Category:       elements.AdditionalLabor,
		Priority:       20,
		BaseConfidence: 0.5,
		Threshold:      0.45,
		Keywords: []string{
			"construction workers", "workers", "crew", "cleaners", "movers", "laborers", "technicians",
			"عمال", "فنيين", "طاقم",
		},
		Context: []string{`(?i)\b(hammer\w*|build\w*|carry\w*|install\w*)\b|يبنون|يحملون`},
	},
	{
		Category:       elements.Miscellaneous,
		Priority:       21,
		BaseConfidence: 0.45,
		Threshold:      0.4,
		Keywords: []string{
			"permit", "catering", "translator", "interpreter", "generator",
			"تصريح", "مترجم", "مولد كهرباء",
		},
	},
}

// DefaultRules returns a copy of the built-in classification table.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	for i, r := range defaultRules {
		r.Keywords = slices.Clone(r.Keywords)
		r.Context = slices.Clone(r.Context)
		r.Exclusions = slices.Clone(r.Exclusions)
		out[i] = r
	}
	return out
}
