package config

const (
	defaultDataDir              = "~/.local/share/printq/data"
	defaultUploadDir            = "~/.local/share/printq/uploads"
	defaultExportDir            = "~/.local/share/printq/exports"
	defaultLogDir               = "~/.local/share/printq/logs"
	defaultAPIBind              = "127.0.0.1:7519"
	defaultStoreBackend         = "json"
	defaultPageSize             = 5
	defaultArchiveRetentionDays = 14
	defaultArtifactExpiryDays   = 7
	defaultBackupRetentionDays  = 14
	defaultCleanupIntervalHours = 24
	defaultBackupIntervalHours  = 168
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			ExportDir: defaultExportDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Labels: Labels{
			Groups:   []string{"general"},
			Purposes: []string{"coursework", "prototype", "other"},
		},
		Store: Store{
			Backend:  defaultStoreBackend,
			PageSize: defaultPageSize,
		},
		Retention: Retention{
			ArchiveRetentionDays: defaultArchiveRetentionDays,
			ArtifactExpiryDays:   defaultArtifactExpiryDays,
			BackupRetentionDays:  defaultBackupRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Intake:         true,
			Status:         true,
			Archive:        true,
			Cleanup:        true,
			Errors:         true,
		},
		Scheduler: Scheduler{
			CleanupIntervalHours: defaultCleanupIntervalHours,
			BackupIntervalHours:  defaultBackupIntervalHours,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
