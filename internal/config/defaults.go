package config

const (
	defaultInputDir  = "input"
	defaultAssetsDir = "assets"
	defaultOutputDir = "output"
	defaultLogDir    = "~/.local/share/slidecast/logs"

	defaultFrameRate       = 30
	defaultCRF             = 22
	defaultPreset          = "fast"
	defaultAudioBitrate    = "128k"
	defaultComposeTimeout  = 300
	defaultAssembleTimeout = 600
	defaultOutputName      = "video.mp4"

	defaultDPI      = 300
	defaultMaxWidth = 1920

	defaultTTSEngine         = "openai"
	defaultTTSVoice          = "echo"
	defaultTTSModel          = "tts-1"
	defaultTTSBaseURL        = "https://api.openai.com/v1/audio/speech"
	defaultTTSTimeoutSeconds = 60
	defaultTTSMaxAttempts    = 5
	defaultTTSWorkers        = 1
	defaultGeminiModel       = "gemini-2.5-flash-preview-tts"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			AssetsDir: defaultAssetsDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Video: Video{
			FrameRate:       defaultFrameRate,
			CRF:             defaultCRF,
			Preset:          defaultPreset,
			AudioBitrate:    defaultAudioBitrate,
			ComposeTimeout:  defaultComposeTimeout,
			AssembleTimeout: defaultAssembleTimeout,
			OutputName:      defaultOutputName,
		},
		Render: Render{
			DPI:      defaultDPI,
			MaxWidth: defaultMaxWidth,
		},
		TTS: TTS{
			Engine:         defaultTTSEngine,
			Voice:          defaultTTSVoice,
			Model:          defaultTTSModel,
			BaseURL:        defaultTTSBaseURL,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
			MaxAttempts:    defaultTTSMaxAttempts,
			Workers:        defaultTTSWorkers,
			GeminiModel:    defaultGeminiModel,
		},
		Tools: Tools{
			FFmpeg:   "ffmpeg",
			FFprobe:  "ffprobe",
			Soffice:  "libreoffice",
			PDFToPPM: "pdftoppm",
			Espeak:   "espeak-ng",
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
