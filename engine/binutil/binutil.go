package binutil

import (
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"golang.org/x/net/websocket"
)

// SetupHTTPServer starts the HTTP server for go tool pprof, expvars and the /ws client endpoint
func SetupHTTPServer(ip string, port int, wsHandler func(ws *websocket.Conn)) {
	if port == 0 {
		gwlog.Infof("http server not enabled")
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/debug/pprof/", http.DefaultServeMux)
	mux.Handle("/debug/vars", expvar.Handler())
	if wsHandler != nil {
		mux.Handle("/ws", websocket.Handler(wsHandler))
	}
	serveHTTP(fmt.Sprintf("%s:%d", ip, port), mux)
}

func serveHTTP(httpHost string, handler http.Handler) {
	gwlog.Infof("http server listening on %s", httpHost)
	gwlog.Infof("pprof http://%s/debug/pprof/ ... available commands: ", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/heap", httpHost)
	gwlog.Infof("    go tool pprof http://%s/debug/pprof/profile", httpHost)

	go func() {
		if err := http.ListenAndServe(httpHost, handler); err != nil {
			gwlog.Errorf("http server on %s stopped: %v", httpHost, err)
		}
	}()
}

// SetupGWLog setup the log system of a chanworld process
func SetupGWLog(component string, logLevel string, logFile string, logStderr bool) {
	gwlog.SetSource(component)
	gwlog.Infof("Set log level to %s", logLevel)
	gwlog.SetLevel(gwlog.ParseLevel(logLevel))

	outputWriters := make([]io.Writer, 0, 2)
	if logFile != "" {
		logFileWriter := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 30,
			MaxAge:     14, // days
			Compress:   true,
		}
		// each process start gets its own log file
		logFileWriter.Rotate()
		outputWriters = append(outputWriters, logFileWriter)
	}

	if logStderr {
		outputWriters = append(outputWriters, os.Stderr)
	}

	if len(outputWriters) == 1 {
		gwlog.SetOutput(outputWriters[0])
	} else {
		gwlog.SetOutput(io.MultiWriter(outputWriters...))
	}
}
