package cfg

type Cfg struct {
	// Archive credentials
	Username    string
	Password    string
	HistoryUser string

	// Application configuration
	Port          string
	BaseUrl       string
	PageSize      int
	CacheSize     int
	CacheTTL      int
	DBPath        string
	SelectorsFile string
	APIAccessKey  string
	SyncInterval  int
	SyncDepth     int
	WorkerCount   int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
