package pubproxy

// apiResponse mirrors the JSON body of a successful API call
type apiResponse struct {
	Data  []proxyEntry `json:"data"`
	Count int          `json:"count"`
}

// proxyEntry is one proxy in an API response. Only IPPort is consumed;
// the remaining fields are kept for completeness of the wire format.
type proxyEntry struct {
	IPPort  string `json:"ipPort"`
	IP      string `json:"ip"`
	Port    string `json:"port"`
	Country string `json:"country"`
	Type    string `json:"type"`
}
