package proxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
	"github.com/rotisserie/eris"
)

// chromeUA matches the Chrome release whose ClientHello we present.
// Both layers have to agree or the mismatch itself becomes a
// fingerprint.
const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxFetchBytes = 4 * 1024 * 1024

// fetchThroughProxy issues a GET for target through the given HTTP
// proxy, presenting a Chrome TLS fingerprint on HTTPS targets. The
// response is checked against the acceptance criteria before the body
// is returned.
func fetchThroughProxy(ctx context.Context, proxyURL, target string, timeout time.Duration, minBody int) ([]byte, error) {
	pu, err := url.Parse(proxyURL)
	if err != nil || pu.Host == "" {
		return nil, eris.Errorf("proxy: malformed proxy endpoint %q", proxyURL)
	}
	tu, err := url.Parse(target)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: parse target")
	}

	tr := &http.Transport{
		DisableKeepAlives:     true,
		ResponseHeaderTimeout: timeout,
	}
	if tu.Scheme == "https" {
		proxyHost := pu.Host
		tr.DialTLSContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
			return dialTLSViaConnect(ctx, proxyHost, addr, timeout)
		}
	} else {
		tr.Proxy = http.ProxyURL(pu)
	}

	client := &http.Client{Transport: tr, Timeout: timeout}
	defer tr.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, eris.Wrap(err, "proxy: create request")
	}
	browserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "proxy: fetch via %s", pu.Host)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, eris.Wrap(err, "proxy: read body")
	}

	if err := accept(resp.StatusCode, resp.Header, body, minBody); err != nil {
		return nil, err
	}
	return body, nil
}

// dialTLSViaConnect tunnels to targetAddr with an HTTP CONNECT through
// the proxy, then completes a TLS handshake whose ClientHello matches
// Chrome's cipher suites and extension order. ALPN is pinned to
// HTTP/1.1 so the transport on top can speak plain HTTP over the
// tunnel.
func dialTLSViaConnect(ctx context.Context, proxyAddr, targetAddr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", proxyAddr)
	if err != nil {
		return nil, eris.Wrapf(err, "proxy: dial %s", proxyAddr)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}

	if _, err := fmt.Fprintf(conn, "CONNECT %s HTTP/1.1\r\nHost: %s\r\nProxy-Connection: Keep-Alive\r\n\r\n", targetAddr, targetAddr); err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "proxy: write CONNECT")
	}

	br := bufio.NewReader(conn)
	resp, err := http.ReadResponse(br, &http.Request{Method: http.MethodConnect})
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "proxy: read CONNECT response")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_ = conn.Close()
		return nil, eris.Errorf("proxy: CONNECT refused with status %d", resp.StatusCode)
	}

	host, _, err := net.SplitHostPort(targetAddr)
	if err != nil {
		host = targetAddr
	}

	spec, err := utls.UTLSIdToSpec(utls.HelloChrome_120)
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "proxy: chrome hello spec")
	}
	for i, ext := range spec.Extensions {
		if _, ok := ext.(*utls.ALPNExtension); ok {
			spec.Extensions[i] = &utls.ALPNExtension{AlpnProtocols: []string{"http/1.1"}}
		}
	}

	uconn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
	if err := uconn.ApplyPreset(&spec); err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "proxy: apply hello preset")
	}
	if err := uconn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, eris.Wrapf(err, "proxy: tls handshake with %s", host)
	}

	_ = conn.SetDeadline(time.Time{})
	return uconn, nil
}

// browserHeaders sets the header set an ordinary Chrome sends, in a
// plausible order.
func browserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-PE,es;q=0.9,en;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}

// accept applies the shared acceptance criteria: HTTP 200, a body of
// non-trivial size, and no block-page markers. Thin or challenge
// bodies are rejected as likely block pages.
func accept(status int, header http.Header, body []byte, minBody int) error {
	if blocked, kind := DetectBlock(status, header, body); blocked {
		return eris.Errorf("proxy: blocked response (%s)", kind)
	}
	if status != http.StatusOK {
		return eris.Errorf("proxy: status %d", status)
	}
	if len(body) < minBody {
		return eris.Errorf("proxy: thin body (%d bytes, want >= %d)", len(body), minBody)
	}
	return nil
}
