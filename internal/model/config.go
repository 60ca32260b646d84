package model

// --- Configuration Structures ---

const (
	DefaultBackendURL   = "http://localhost:8080"
	DefaultPrinterName  = "Posiflex PP8800 Printer"
	PrinterDriverSystem = "system"
	EnvCredentialLabel  = "Theater-Env"
)

// AgentCredential is one login identity the agent manages.
type AgentCredential struct {
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	PIN       string `json:"pin,omitempty" yaml:"pin,omitempty"`
	TheaterID string `json:"theaterId,omitempty" yaml:"theaterId,omitempty"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
}

// RuntimeConfig is built once at startup and only read afterwards.
type RuntimeConfig struct {
	BackendURL string            `json:"backendUrl" yaml:"backendUrl"`
	Agents     []AgentCredential `json:"agents" yaml:"agents"`
}

type PrinterConfig struct {
	Driver      string `json:"driver"`
	PrinterName string `json:"printerName"` // empty means OS default printer
}

func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{Driver: PrinterDriverSystem, PrinterName: DefaultPrinterName}
}

// WithDefaultPrinter returns a copy that targets the OS default printer.
func (p PrinterConfig) WithDefaultPrinter() PrinterConfig {
	p.PrinterName = ""
	return p
}
