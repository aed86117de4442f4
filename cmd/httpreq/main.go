// Command httpreq sends a single request and prints the response.
//
//	httpreq [flags] HOST [PATH]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"httprequests/application/http"
	"httprequests/application/http/actor/client"
	"httprequests/application/http/cookie"
	"httprequests/config"
	"httprequests/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var errUsage = errors.New("usage: httpreq [flags] HOST [PATH]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "httpreq:", err)
		stop()
		os.Exit(1)
	}
}

type request struct {
	method  string
	host    string
	path    string
	headers map[string]string
	data    map[string]string
	cookies []cookie.Cookie
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("httpreq", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	method := fs.StringP("method", "X", string(http.MethodGet), "request method: GET, POST or HEAD")
	headers := fs.StringArrayP("header", "H", nil, `request header as "Name: value"`)
	data := fs.StringArrayP("data", "d", nil, "form field as key=value, sent url-encoded; implies POST")
	cookies := fs.StringArrayP("cookie", "b", nil, "cookie as name=value")
	configFile := fs.String("config", "", "configuration file")
	fs.Uint("max-redirects", client.DefaultOptions.MaxRedirects, "redirects followed before giving up")
	fs.String("log-level", "info", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errUsage
	}

	v := viper.New()
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "reading configuration file")
		}
	}

	if err := v.BindPFlag("maxRedirects", fs.Lookup("max-redirects")); err != nil {
		return err
	}
	if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	parsed := http.ParseHeaders([]byte(strings.Join(*headers, "\r\n")))

	req := request{
		method:  strings.ToUpper(*method),
		host:    fs.Arg(0),
		path:    fs.Arg(1),
		headers: parsed.Map(),
		data:    make(map[string]string),
	}

	if len(*data) > 0 && !fs.Changed("method") {
		req.method = string(http.MethodPost)
	}

	for _, field := range *data {
		key, value, _ := strings.Cut(field, "=")
		req.data[key] = value
	}

	for _, c := range *cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok {
			return errors.Errorf("cookie %q is not name=value", c)
		}
		req.cookies = append(req.cookies, cookie.New(name, value, "", "", cookie.Options{}))
	}

	c, err := client.New(req.host, tcp.NewDialer(), cfg.Logger(stderr), clock.New(), cfg.ClientOptions())
	if err != nil {
		return err
	}

	res, err := send(ctx, c, req)
	if res != nil {
		printResponse(stdout, res)
	}

	if errors.Is(err, http.ErrUnknownBodyFraming) {
		// Already logged; the response is complete but for its body.
		return nil
	}
	return err
}

func send(ctx context.Context, c *client.Client, req request) (*http.Response, error) {
	switch http.Method(req.method) {
	case http.MethodGet:
		return c.Get(ctx, req.path, req.headers, req.cookies)
	case http.MethodPost:
		return c.Post(ctx, req.path, req.headers, req.data, req.cookies)
	case http.MethodHead:
		return c.Head(ctx, req.path, req.headers)
	}
	return nil, errors.Errorf("unsupported method %q", req.method)
}

func printResponse(w io.Writer, res *http.Response) {
	fmt.Fprintln(w, res.RawStatus)
	for _, name := range res.Headers.Names() {
		value, _ := res.Headers.Get(name)
		fmt.Fprintf(w, "%s: %s\n", name, value)
	}
	fmt.Fprintln(w)
	w.Write(res.Body)
}
