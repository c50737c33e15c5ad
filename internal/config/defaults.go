package config

const (
	defaultDataDir                = "~/.local/share/tidycore"
	defaultLogDir                 = "~/.local/share/tidycore/logs"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultCooldownSeconds        = 5
	defaultSampleCapPerFolder     = 64
	defaultDecisionRetentionCount = 50
	defaultCategory               = "Others"
	defaultWorkers                = 4

	// downloadsPlaceholder resolves to the user's Downloads folder at load time.
	downloadsPlaceholder = "{USER_DOWNLOADS}"
)

var defaultTransientSuffixes = []string{".crdownload", ".part", ".partial", ".download", ".tmp"}

// Default returns a Config populated with repository defaults, including
// the stock rule tree applied when the user has not written any rules.
func Default() Config {
	return Config{
		Paths: Paths{
			TargetFolders: []string{downloadsPlaceholder},
			DataDir:       defaultDataDir,
			LogDir:        defaultLogDir,
		},
		Engine: Engine{
			CooldownSeconds:        defaultCooldownSeconds,
			FolderMode:             FolderModeSmartScan,
			SampleCapPerFolder:     defaultSampleCapPerFolder,
			DecisionRetentionCount: defaultDecisionRetentionCount,
			TransientSuffixes:      append([]string(nil), defaultTransientSuffixes...),
			DefaultCategory:        defaultCategory,
			Workers:                defaultWorkers,
		},
		Rules: DefaultRules(),
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Errors:         true,
			Moves:          false,
			Decisions:      true,
		},
	}
}

// DefaultRules returns the stock classification rule tree.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category:   "Images",
			Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".heic", ".tiff"},
		},
		{
			Category: "Documents",
			Children: []Rule{
				{Subcategory: "PDF", Extensions: []string{".pdf"}},
				{Subcategory: "Word", Extensions: []string{".doc", ".docx", ".odt", ".rtf"}},
				{Subcategory: "Spreadsheets", Extensions: []string{".xls", ".xlsx", ".ods", ".csv"}},
				{Subcategory: "Presentations", Extensions: []string{".ppt", ".pptx", ".odp"}},
				{Subcategory: "Text", Extensions: []string{".txt", ".md"}},
			},
		},
		{
			Category:   "Videos",
			Extensions: []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".webm", ".flv", ".m4v"},
		},
		{
			Category:   "Music",
			Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".opus"},
		},
		{
			Category:   "Archives",
			Extensions: []string{".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".iso"},
		},
		{
			Category:   "Programs",
			Extensions: []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".appimage"},
		},
		{
			Category:   "Code",
			Extensions: []string{".py", ".go", ".js", ".ts", ".c", ".cpp", ".h", ".java", ".rb", ".sh", ".json", ".yaml", ".yml", ".toml"},
		},
	}
}
