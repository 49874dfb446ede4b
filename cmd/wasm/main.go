//go:build js && wasm
// +build js,wasm

package main

import (
	"errors"
	"syscall/js"

	"github.com/himanishpuri/SimilarTracks/internal/rankapi"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorInvalidJSON
	ErrorValidation
	ErrorProcessing
)

// rankTracks re-ranks a pool held by the page.
// Takes one JSON string: {seed_track, similar_tracks, tempo_tolerance, selected_tags, limit}.
// Returns: {error: number, data: object | string}
func rankTracks(this js.Value, args []js.Value) any {
	input, ok := stringArg(args)
	if !ok {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: a JSON string")
	}
	out, err := rankapi.RankJSON([]byte(input), similar.DefaultDisplayLimit)
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}
	return makeDataResponse(out)
}

// buildTagVocabulary returns the tag chips for a pool.
// Takes one JSON string: {similar_tracks, seed_tags}.
// Returns: {error: number, data: object | string}
func buildTagVocabulary(this js.Value, args []js.Value) any {
	input, ok := stringArg(args)
	if !ok {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: a JSON string")
	}
	out, err := rankapi.VocabularyJSON([]byte(input))
	if err != nil {
		return makeErrorResponse(errorCode(err), err.Error())
	}
	return makeDataResponse(out)
}

func stringArg(args []js.Value) (string, bool) {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return "", false
	}
	return args[0].String(), true
}

func errorCode(err error) int {
	if errors.Is(err, rankapi.ErrInvalidJSON) {
		return ErrorInvalidJSON
	}
	return ErrorValidation
}

func makeDataResponse(payload []byte) js.Value {
	data := js.Global().Get("JSON").Call("parse", string(payload))
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 SimilarTracks WASM module initializing...")
	}

	done := make(chan struct{})

	js.Global().Set("rankTracks", js.FuncOf(rankTracks))
	js.Global().Set("buildTagVocabulary", js.FuncOf(buildTagVocabulary))

	if !console.IsUndefined() {
		console.Call("log", "📝 rankTracks and buildTagVocabulary registered")
	}

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
		window.Call("dispatchEvent", event)
	} else if !console.IsUndefined() {
		console.Call("log", "window is undefined, skipping wasmReady event")
	}

	<-done
}
