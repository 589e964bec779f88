// Command pandapouch-client is a minimal manual smoke-test client: it
// puts one key, then reads it back alongside a key that was never set.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
)

type getRequest struct {
	Key string `json:"key"`
}

type putRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type getResponse struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

type putResponse struct {
	Success bool `json:"success"`
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:15324", "node base URL")
	flag.Parse()

	var putRes putResponse
	if err := post(*addr+"/cache/put", putRequest{Key: "key1", Value: "value1"}, &putRes); err != nil {
		fmt.Fprintln(os.Stderr, "put failed:", err)
		os.Exit(1)
	}
	fmt.Println("Put key1: value1")

	var getRes getResponse
	if err := post(*addr+"/cache/get", getRequest{Key: "key1"}, &getRes); err != nil {
		fmt.Fprintln(os.Stderr, "get failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Got key1: %+v\n", getRes)

	if err := post(*addr+"/cache/get", getRequest{Key: "key2"}, &getRes); err != nil {
		fmt.Fprintln(os.Stderr, "get failed:", err)
		os.Exit(1)
	}
	fmt.Printf("Got key2: %+v\n", getRes)
}

func post(url string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(respBody)
}
