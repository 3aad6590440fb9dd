// Command motorctl is a small client for a stage served by motorsrv.
// Writes are issued with wait=true, so the command does not return until
// the pending operation on the server resolves; a spinner keeps the
// terminal honest in the meantime.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/theckman/yacspin"

	"github.com/nasa-jpl/epicsmotor/generichttp"
)

func usage() {
	fmt.Println(`motorctl talks to one stage served by motorsrv.

Usage:
	motorctl <base-url> <command> [arg]

Commands:
	enable
	disable
	clear
	reconfig
	move <position>
	pos
	fault
	retries
	status`)
}

func spinWhile(msg string, fcn func() error) {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[14],
		Suffix:          " " + msg,
		StopCharacter:   "done",
		StopFailMessage: "failed",
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		// no spinner support, just run it
		if err := fcn(); err != nil {
			log.Fatal(err)
		}
		return
	}
	spinner.Start()
	if err := fcn(); err != nil {
		spinner.StopFail()
		log.Fatal(err)
	}
	spinner.Stop()
}

func checkResp(resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, buf.String())
	}
	return nil
}

func post(url string, body interface{}) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return err
	}
	resp, err := http.Post(url+"?wait=true", "application/json", buf)
	if err != nil {
		return err
	}
	return checkResp(resp)
}

func getJSON(url string, into interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, buf.String())
	}
	return json.NewDecoder(resp.Body).Decode(into)
}

func main() {
	if len(os.Args) < 3 {
		usage()
		return
	}
	base := os.Args[1]
	cmd := os.Args[2]
	switch cmd {
	case "enable":
		spinWhile("enabling", func() error {
			return post(base+"/enabled", generichttp.BoolT{Bool: true})
		})
	case "disable":
		spinWhile("disabling", func() error {
			return post(base+"/enabled", generichttp.BoolT{Bool: false})
		})
	case "clear":
		spinWhile("clearing error", func() error {
			return post(base+"/clear", struct{}{})
		})
	case "reconfig":
		spinWhile("reconfiguring", func() error {
			return post(base+"/reconfig", struct{}{})
		})
	case "move":
		if len(os.Args) < 4 {
			usage()
			return
		}
		pos, err := strconv.ParseFloat(os.Args[3], 64)
		if err != nil {
			log.Fatal("position not understood: ", err)
		}
		spinWhile(fmt.Sprintf("moving to %G", pos), func() error {
			return post(base+"/pos", generichttp.FloatT{F64: pos})
		})
	case "pos":
		f := generichttp.FloatT{}
		if err := getJSON(base+"/pos", &f); err != nil {
			log.Fatal(err)
		}
		fmt.Println(f.F64)
	case "fault":
		b := generichttp.BoolT{}
		if err := getJSON(base+"/fault", &b); err != nil {
			log.Fatal(err)
		}
		fmt.Println(b.Bool)
	case "retries":
		i := generichttp.IntT{}
		if err := getJSON(base+"/retries", &i); err != nil {
			log.Fatal(err)
		}
		fmt.Println(i.Int)
	case "status":
		bits := map[string]bool{}
		if err := getJSON(base+"/axis-status", &bits); err != nil {
			log.Fatal(err)
		}
		out, err := json.MarshalIndent(bits, "", "  ")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(out))
	default:
		usage()
	}
}
