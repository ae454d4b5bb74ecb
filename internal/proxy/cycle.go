package proxy

import (
	"net/http"
	"time"

	"github.com/Danny-Dasilva/CycleTLS/cycletls"
	"github.com/rotisserie/eris"
)

// Firefox JA3 and user agent. The fallback presents a different
// browser family than the primary transport's Chrome profile.
const (
	firefoxJA3 = "771,4865-4867-4866-49195-49199-52393-52392-49196-49200-49162-49161-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-34-51-43-13-45-28-21,29-23-24-25-256-257,0"
	firefoxUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"
)

// fetchCycleTLS is the alternate-transport last resort: a direct
// request through a second TLS stack with its own fingerprint, no
// proxy. Used only after the rotation budget is exhausted.
func fetchCycleTLS(target string, timeout time.Duration, minBody int) ([]byte, error) {
	client := cycletls.Init()
	defer client.Close()

	resp, err := client.Do(target, cycletls.Options{
		Ja3:       firefoxJA3,
		UserAgent: firefoxUA,
		Timeout:   int(timeout.Seconds()),
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "es-PE,es;q=0.9,en;q=0.8",
		},
	}, http.MethodGet)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: cycletls fetch")
	}

	body := []byte(resp.Body)
	if err := accept(resp.Status, http.Header{}, body, minBody); err != nil {
		return nil, err
	}
	return body, nil
}
