package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"driverhub/internal/cli"
)

func main() {
	var (
		driverID = flag.String("driver-id", "", "UUID of the driver (subject)")
		secret   = flag.String("secret", "", "JWT HMAC secret (HS256)")
	)
	flag.Parse()

	if *driverID == "" || *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: key --driver-id=<uuid> --secret='<secret>'")
		os.Exit(2)
	}

	token, claims, err := cli.GenerateDriverToken(*secret, *driverID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	fmt.Println("TOKEN:")
	fmt.Println(token)
	fmt.Println("\nCLAIMS:")
	fmt.Printf("  sub:  %s\n", claims.Subject)
	fmt.Printf("  role: %s\n", claims.Role)
	fmt.Printf("  iat:  %s\n", claims.IssuedAt.Time.UTC().Format(time.RFC3339))
	fmt.Printf("  exp:  %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
}
