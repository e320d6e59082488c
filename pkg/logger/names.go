package logger

const (
	Main      = "main"
	Probe     = "probe"
	Transport = "transport"
)
