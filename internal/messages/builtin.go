package messages

// builtinMessages holds the interface texts shipped with the binary, per language code
var builtinMessages = map[string]map[string]string{
	"en": {
		"statistics":                   "Statistics",
		"statistics-summary":           "",
		"statistics-header-pages":      "Page statistics",
		"statistics-header-edits":      "Edit statistics",
		"statistics-header-users":      "User statistics",
		"statistics-header-hooks":      "Other statistics",
		"statistics-articles":          "Content pages",
		"statistics-articles-desc":     "All pages in content namespaces, excluding redirects",
		"statistics-pages":             "Pages",
		"statistics-pages-desc":        "All pages in the wiki, including talk pages, redirects, etc.",
		"statistics-files":             "Uploaded files",
		"statistics-edits":             "Page edits since {{SITENAME}} was set up",
		"statistics-edits-average":     "Average edits per page",
		"statistics-users":             "Registered [[Special:ListUsers|users]]",
		"statistics-users-active":      "Active users",
		"statistics-users-active-desc": "Users who have performed an action in the last {{PLURAL:$1|day|$1 days}}",
		"statistics-footer":            "",
		"listgrouprights-members":      "(list of members)",
		"parentheses":                  "($1)",

		"group-bot":                 "Bots",
		"group-sysop":               "Administrators",
		"group-bureaucrat":          "Bureaucrats",
		"group-suppress":            "Suppressors",
		"group-interface-admin":     "Interface administrators",
		"grouppage-bot":             "{{ns:project}}:Bots",
		"grouppage-sysop":           "{{ns:project}}:Administrators",
		"grouppage-bureaucrat":      "{{ns:project}}:Bureaucrats",
		"grouppage-suppress":        "{{ns:project}}:Suppress",
		"grouppage-interface-admin": "{{ns:project}}:Interface administrators",

		"statistics-header-cache":  "Object cache",
		"statistics-cache-entries": "Cached entries",
		"statistics-cache-hits":    "Cache hits",
		"statistics-cache-misses":  "Cache misses",
		"statistics-cache-hitrate": "Cache hit rate (%)",

		"error-title":             "Error",
		"error-stats-unavailable": "The statistics could not be loaded. Please try again later.",
	},
	"de": {
		"statistics":                   "Statistik",
		"statistics-header-pages":      "Seitenstatistik",
		"statistics-header-edits":      "Bearbeitungsstatistik",
		"statistics-header-users":      "Benutzerstatistik",
		"statistics-header-hooks":      "Andere Statistiken",
		"statistics-articles":          "Inhaltsseiten",
		"statistics-articles-desc":     "Alle Seiten in Inhaltsnamensräumen, ausgenommen Weiterleitungen",
		"statistics-pages":             "Seiten",
		"statistics-pages-desc":        "Alle Seiten in diesem Wiki, inklusive Diskussionsseiten, Weiterleitungen usw.",
		"statistics-files":             "Hochgeladene Dateien",
		"statistics-edits":             "Seitenbearbeitungen seit Bestehen von {{SITENAME}}",
		"statistics-edits-average":     "Bearbeitungen pro Seite im Durchschnitt",
		"statistics-users":             "Registrierte [[Special:ListUsers|Benutzer]]",
		"statistics-users-active":      "Aktive Benutzer",
		"statistics-users-active-desc": "Benutzer mit Aktivitäten {{PLURAL:$1|am letzten Tag|in den letzten $1 Tagen}}",
		"listgrouprights-members":      "(Mitgliederliste)",

		"group-bot":            "Bots",
		"group-sysop":          "Administratoren",
		"group-bureaucrat":     "Bürokraten",
		"grouppage-sysop":      "{{ns:project}}:Administratoren",
		"grouppage-bureaucrat": "{{ns:project}}:Bürokraten",

		"statistics-header-cache":  "Objektcache",
		"statistics-cache-entries": "Einträge im Cache",
		"statistics-cache-hits":    "Cache-Treffer",
		"statistics-cache-misses":  "Cache-Fehlschläge",

		"error-title": "Fehler",
	},
}

// fallbackLanguage is consulted when a message is missing in the requested language
const fallbackLanguage = "en"
