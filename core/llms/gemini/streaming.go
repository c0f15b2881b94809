package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/tesslearn/tessa-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	baseURL = "https://generativelanguage.googleapis.com/v1beta/models"

	chunkPrefix = "data:"
)

// PromptWithStream prepares a token-streaming exchange against the Gemini
// streamGenerateContent endpoint. The request is not sent until Chunks is
// iterated.
func PromptWithStream(
	_ context.Context,
	apiKey string,
	model string,
	prompt *string,
	systemPrompt string,
	opts ...llms.StreamingPromptOption,
) *Stream {
	options := llms.StreamingPromptOptions{Instructions: systemPrompt}
	for _, opt := range opts {
		opt(&options)
	}

	var turns []llms.Turn
	copier.Copy(&turns, options.Turns)
	if prompt != nil {
		turns = append(turns, llms.Turn{Role: llms.TurnRoleUser, Content: *prompt})
	}

	return &Stream{
		apiKey:       apiKey,
		model:        model,
		instructions: options.Instructions,
		turns:        turns,
		maxTokens:    options.MaxTokens,
	}
}

type Stream struct {
	apiKey string

	model        string
	instructions string
	turns        []llms.Turn
	maxTokens    int
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	requestToFirstTokenTime := time.Time{}
	setRequestToFirstTokenTime := func(span trace.Span) {
		if requestToFirstTokenTime.IsZero() {
			return
		}
		span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestToFirstTokenTime).Seconds()))
		span.AddEvent("received first chunk")
		requestToFirstTokenTime = time.Time{}
	}

	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", s.model))

		reqBody := requestBody{
			Contents: toContents(s.turns),
		}
		if s.instructions != "" {
			reqBody.SystemInstruction = &content{Parts: []part{{Text: s.instructions}}}
		}
		if s.maxTokens > 0 {
			reqBody.GenerationConfig = &generationConfig{MaxOutputTokens: s.maxTokens}
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		url := fmt.Sprintf("%s/%s:streamGenerateContent?alt=sse", baseURL, s.model)
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", s.apiKey)

		span.SetAttributes(attribute.String("request.url", req.URL.Path))
		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)}
		requestToFirstTokenTime = time.Now()
		span.AddEvent("request started")
		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				err = fmt.Errorf("error reading error body: %w", err)
				span.RecordError(err)
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))
			setRequestToFirstTokenTime(span)

			if len(chunk) == 0 {
				continue
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield(nil, err) {
					return
				}
				continue
			}

			if len(responseBody.Candidates) > 0 {
				candidate := responseBody.Candidates[0]
				for _, candidatePart := range candidate.Content.Parts {
					if candidatePart.Text == "" {
						continue
					}
					if !yield(StreamContentChunk{
						finishReason: candidate.FinishReason,
						content:      candidatePart.Text,
					}, nil) {
						return
					}
				}
			}

			if responseBody.UsageMetadata != nil {
				span.SetAttributes(attribute.Int("usage.input", responseBody.UsageMetadata.PromptTokenCount))
				span.SetAttributes(attribute.Int("usage.output", responseBody.UsageMetadata.CandidatesTokenCount))
				span.SetAttributes(attribute.Int("usage.total", responseBody.UsageMetadata.TotalTokenCount))

				if !yield(StreamUsageChunk{
					usage: llms.Usage{
						InputTokens:  responseBody.UsageMetadata.PromptTokenCount,
						OutputTokens: responseBody.UsageMetadata.CandidatesTokenCount,
						TotalTokens:  responseBody.UsageMetadata.TotalTokenCount,
					},
				}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamContentChunk) Content() string {
	return s.content
}

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string {
	return s.finishReason
}

func (s StreamUsageChunk) Usage() llms.Usage {
	return s.usage
}
