package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/config"
	"github.com/tstromberg/bildspel/pkg/validate"
)

var (
	distDir = flag.String("dist", "dist", "Location of the build output to validate")
	envFile = flag.String("env-file", ".env", "Path to a .env file with PUBLIC_* settings")
	timeout = flag.Duration("timeout", 15*time.Second, "Timeout for the API reachability check")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		klog.Exitf("env: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	r := validate.Run(ctx, validate.Options{DistDir: *distDir})
	fmt.Println(r.String())
	if !r.OK() {
		os.Exit(1)
	}
}
