package features

// Raw categories produced by the classifier before merge post-processing.
const (
	CategoryEducation     = "Education"
	CategoryMovies        = "Movies"
	CategoryGames         = "Games"
	CategoryApps          = "Apps"
	CategoryEntertainment = "Entertainment"
	CategoryCareer        = "Career"
	CategoryFinance       = "Finance"
	CategoryOthers        = "Others"
)

// Categories lists the raw categories in canonical order.
var Categories = []string{
	CategoryEducation,
	CategoryMovies,
	CategoryGames,
	CategoryApps,
	CategoryEntertainment,
	CategoryCareer,
	CategoryFinance,
	CategoryOthers,
}

type categoryPriors struct {
	key        string
	keywords   []string
	extensions []string
}

// priors is ordered like Categories; key is the lower-case suffix used in
// keywords_<key> and ext_match_<key> field names.
var priors = []categoryPriors{
	{
		key: "education",
		keywords: []string{
			"assignment", "notes", "class", "syllabus", "exam", "lecture", "worksheet", "college",
			"study", "textbook", "tutorial", "course", "homework", "quiz", "test", "university",
			"school", "academic", "research", "thesis", "dissertation", "math", "science", "biology",
			"chemistry", "physics", "computer", "programming", "algorithm", "data", "statistics",
		},
		extensions: []string{".pdf", ".docx", ".pptx", ".txt", ".doc", ".ppt", ".rtf", ".tex", ".epub", ".bib"},
	},
	{
		key: "movies",
		keywords: []string{
			"movie", "film", "trailer", "cinema", "hd", "bluray", "dvd", "4k", "action", "comedy",
			"drama", "horror", "thriller", "adventure", "fantasy", "scifi", "romance", "animation",
			"documentary", "imax", "extended", "directors", "cut", "unrated", "remastered",
		},
		extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg"},
	},
	{
		key: "games",
		keywords: []string{
			"game", "gaming", "setup", "install", "launcher", "steam", "epic", "origin", "battle",
			"playstation", "xbox", "nintendo", "mod", "patch", "dlc", "expansion", "multiplayer",
			"online", "rpg", "fps", "strategy", "puzzle", "arcade", "simulation", "sports",
		},
		extensions: []string{".exe", ".zip", ".rar", ".7z", ".iso", ".msi", ".apk", ".dmg", ".pkg", ".deb"},
	},
	{
		key: "apps",
		keywords: []string{
			"app", "application", "software", "program", "tool", "utility", "installer", "setup",
			"exe", "dmg", "pkg", "deb", "rpm", "snap", "flatpak", "portable", "professional",
			"enterprise", "business", "productivity", "editor", "browser", "client",
		},
		extensions: []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".snap", ".flatpak", ".appimage", ".tar.gz"},
	},
	{
		key: "entertainment",
		keywords: []string{
			"music", "song", "audio", "video", "entertainment", "comedy", "funny", "viral", "trending",
			"podcast", "stream", "live", "concert", "album", "playlist", "mix", "dance", "party",
			"show", "series", "episode", "channel", "youtube", "tiktok", "instagram",
		},
		extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma", ".mp4", ".webm", ".mkv"},
	},
	{
		key: "career",
		keywords: []string{
			"resume", "cv", "career", "job", "work", "professional", "interview", "application",
			"cover", "letter", "linkedin", "portfolio", "project", "skill", "certification",
			"training", "development", "management", "leadership", "performance", "review",
			"promotion", "salary", "negotiation",
		},
		extensions: []string{".pdf", ".docx", ".doc", ".txt", ".rtf", ".odt"},
	},
	{
		key: "finance",
		keywords: []string{
			"finance", "financial", "money", "bank", "banking", "invoice", "bill", "receipt",
			"statement", "tax", "salary", "payroll", "budget", "expense", "income", "investment",
			"stock", "crypto", "currency", "loan", "mortgage", "insurance", "audit", "accounting",
		},
		extensions: []string{".pdf", ".xlsx", ".xls", ".csv", ".txt", ".docx"},
	},
	{
		key: "others",
		keywords: []string{
			"temp", "temporary", "cache", "data", "config", "system", "log", "backup", "archive",
			"database", "misc", "other", "unknown", "file", "document", "folder", "directory",
			"settings", "preferences", "metadata", "info", "readme", "license", "changelog",
		},
		extensions: []string{".dat", ".bin", ".tmp", ".log", ".cfg", ".ini", ".xml", ".json", ".db", ".sqlite", ".bak", ".old"},
	},
}

// Scalar feature names.
const (
	FieldExtension     = "extension"
	FieldNameLength    = "name_length"
	FieldSizeBytes     = "size_bytes"
	FieldSizeCategory  = "size_category"
	FieldHasNumbers    = "has_numbers"
	FieldHasUnderscore = "has_underscore"
	FieldHasDash       = "has_dash"
	FieldWordCount     = "word_count"
)

// KeywordField returns the keyword-hit feature name for a category key.
func KeywordField(key string) string { return "keywords_" + key }

// ExtensionMatchField returns the extension-match feature name for a category key.
func ExtensionMatchField(key string) string { return "ext_match_" + key }

// DefaultFields returns the full set of features the extractor produces, in
// the order used by the reference training data.
func DefaultFields() []string {
	fields := []string{
		FieldExtension, FieldNameLength, FieldSizeBytes, FieldSizeCategory,
		FieldHasNumbers, FieldHasUnderscore, FieldHasDash, FieldWordCount,
	}
	for _, p := range priors {
		fields = append(fields, KeywordField(p.key))
	}
	for _, p := range priors {
		fields = append(fields, ExtensionMatchField(p.key))
	}
	return fields
}
