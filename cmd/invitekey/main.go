// invitekey prints a fresh hex-encoded invite signing secret for INVITE_SECRET.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	size := flag.Int("bytes", 32, "Secret length in bytes (minimum 32)")
	flag.Parse()

	if *size < 32 {
		fmt.Fprintln(os.Stderr, "invitekey: secret must be at least 32 bytes")
		os.Exit(1)
	}

	secret := make([]byte, *size)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("invitekey: %v", err)
	}
	fmt.Println(hex.EncodeToString(secret))
}
