package audit

const (
	scanInputDirectoryConfigurationKeyConstant = "scan.input_directory"
	scanConsoleLoggingConfigurationKeyConstant = "scan.console_logging"
	defaultInputDirectoryConstant              = "."
)

// CommandConfiguration captures viper-backed settings for the scan command.
type CommandConfiguration struct {
	InputDirectory string `mapstructure:"input_directory"`
	ConsoleLogging bool   `mapstructure:"console_logging"`
}

// DefaultConfigurationValues supplies configuration defaults registered with viper.
func DefaultConfigurationValues() map[string]any {
	return map[string]any{
		scanInputDirectoryConfigurationKeyConstant: defaultInputDirectoryConstant,
		scanConsoleLoggingConfigurationKeyConstant: false,
	}
}
