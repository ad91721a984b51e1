package config

const (
	defaultRootDir            = "~/Downloads"
	defaultStateDir           = "~/.local/share/sift"
	defaultLogDir             = "~/.local/share/sift/logs"
	defaultModelBackend       = "random-forest"
	defaultModelPath          = "~/.local/share/sift/rf_file_classifier.json"
	defaultStabilityDelayMS   = 2000
	defaultStabilityAttempts  = 3
	defaultMinFileSize        = 1024
	defaultMaxWorkers         = 4
	defaultAmbiguityGap       = 0.3
	defaultSmallDocumentBytes = 50 * 1024 * 1024
	defaultTinyDocumentBytes  = 5 * 1024 * 1024
	defaultEducationFloor     = 0.15
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultIgnorePatterns = []string{
	".tmp", ".temp", ".crdownload", ".part", ".downloading",
	".DS_Store", "Thumbs.db", ".gitkeep", ".placeholder",
}

// DefaultIgnorePatterns returns a copy of the built-in ignore list.
func DefaultIgnorePatterns() []string {
	return append([]string(nil), defaultIgnorePatterns...)
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootDir:  defaultRootDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Model: Model{
			Backend: defaultModelBackend,
			Path:    defaultModelPath,
		},
		Watch: Watch{
			OrganizeExisting:  true,
			StabilityDelayMS:  defaultStabilityDelayMS,
			StabilityAttempts: defaultStabilityAttempts,
			MinFileSize:       defaultMinFileSize,
			IgnorePatterns:    DefaultIgnorePatterns(),
			MaxWorkers:        defaultMaxWorkers,
		},
		Policy: Policy{
			AmbiguityGap:       defaultAmbiguityGap,
			SmallDocumentBytes: defaultSmallDocumentBytes,
			TinyDocumentBytes:  defaultTinyDocumentBytes,
			EducationFloor:     defaultEducationFloor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
