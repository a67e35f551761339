package domain

// ScanInput is the batch attachment scan request
type ScanInput struct {
	URLs []string `json:"urls" validate:"required,min=1,max=50,dive,required,download_url" example:"https://mail.example/att/report.pdf"`
}

// ScanVerdict is one URL's entry in ScanOutput. Error is set instead of a verdict when analysis failed
type ScanVerdict struct {
	Filename    string `json:"filename"               example:"report.pdf"`
	IsMalicious bool   `json:"is_malicious"           example:"false"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ScanOutput maps each distinct URL to its verdict
type ScanOutput struct {
	Results map[string]ScanVerdict `json:"results"`
}

// StartInput asks the local host to download a URL through the guard
type StartInput struct {
	URL      string `json:"url"                validate:"required,download_url" example:"https://files.example/setup.exe"`
	Filename string `json:"filename,omitempty" validate:"max=255"               example:"setup.exe"`
}

// StartOutput reports the created transfer. Intercepted is true once the guard
// has taken the transfer over for verification
type StartOutput struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Intercepted bool   `json:"intercepted"`
}

// ScanOutputFrom keys results by URL; later duplicates overwrite earlier ones
func ScanOutputFrom(rs []ScanResult) ScanOutput {
	out := ScanOutput{Results: make(map[string]ScanVerdict, len(rs))}
	for _, r := range rs {
		out.Results[r.URL] = ScanVerdict{
			Filename:    r.Filename,
			IsMalicious: r.IsMalicious,
			Message:     r.Message,
			Error:       r.Error,
		}
	}
	return out
}
