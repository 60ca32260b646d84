package model

// AppInfo identifies the running agent. It used to travel as context
// values; it is now passed explicitly to whoever prints it.
type AppInfo struct {
	Name    string
	Version string
	Author  string
}

func (a AppInfo) PoweredBy() string {
	if a.Author == "" {
		return "Powered by " + a.Name
	}
	return "Powered by " + a.Author
}
