// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"html/template"

	"github.com/jeranaias/langchat/internal/model"
	"github.com/jeranaias/langchat/internal/render"
	"github.com/jeranaias/langchat/internal/sources"
)

// ============================================================================
// PAGE DATA
// ============================================================================

// pageData feeds pageTemplate.
type pageData struct {
	Title    string
	Messages []template.HTML
	Sources  []sourceEntry
	Modal    *modalData
	Busy     bool
	State    string
}

// sourceEntry is one item of the source list.
type sourceEntry struct {
	Number int
	Label  string
	Source template.HTML
}

// modalData is the open source modal.
type modalData struct {
	Label  string
	Source template.HTML
	Text   template.HTML
}

// buildSources renders the source list. Source strings are escaped before
// their URLs become links.
func buildSources(docs []model.SourceDocument) []sourceEntry {
	out := make([]sourceEntry, len(docs))
	for i, doc := range docs {
		out[i] = sourceEntry{
			Number: i + 1,
			Label:  model.Label(i),
			Source: template.HTML(sources.LinkifyEscaped(doc.Source)),
		}
	}
	return out
}

func buildModal(m *openModal) *modalData {
	if m == nil {
		return nil
	}
	return &modalData{
		Label:  model.Label(m.index),
		Source: template.HTML(sources.LinkifyEscaped(m.doc.Source)),
		Text:   template.HTML(sources.LinkifyEscaped(m.doc.Text)),
	}
}

func buildMessages(r *render.HTML, msgs []model.Message) []template.HTML {
	out := make([]template.HTML, len(msgs))
	for i, msg := range msgs {
		out[i] = r.Message(msg)
	}
	return out
}

// ============================================================================
// TEMPLATE
// ============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  {{- if .Busy}}
  <meta http-equiv="refresh" content="2">
  {{- end}}
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="/static/chat.css">
</head>
<body>
  <div class="chat-container">
    <div id="chat-body" class="chat-body">
      {{- range .Messages}}
      {{.}}
      {{- end}}
      <div id="scroll-anchor"></div>
    </div>
    <form class="chat-input" method="post" action="/send#scroll-anchor">
      <input id="query-input" name="message" type="text" placeholder="Ask a question" autocomplete="off" autofocus{{if .Busy}} disabled{{end}}>
      <button id="send-button" type="submit"{{if .Busy}} disabled{{end}}>Send</button>
    </form>
    <div class="status">{{.State}}</div>
  </div>
  <aside class="sources">
    <h2>Sources</h2>
    <ul id="source-documents">
      {{- range .Sources}}
      <li><a class="source-link" href="/?source={{.Number}}">{{.Label}}</a> {{.Source}}</li>
      {{- end}}
    </ul>
  </aside>
  <div id="docModal" class="modal{{if .Modal}} open{{end}}">
    <div class="modal-dialog">
      <a class="modal-close" href="/#scroll-anchor">&times;</a>
      <div id="modal-body">
        {{- with .Modal}}
        <h3>{{.Label}}</h3>
        <p><strong>Source:</strong> {{.Source}}</p>
        <p><strong>Text:</strong> {{.Text}}</p>
        {{- end}}
      </div>
    </div>
  </div>
</body>
</html>
`))

// pageCSS styles the widget. Code highlighting CSS is appended at runtime.
const pageCSS = `body { margin: 0; display: flex; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f5f6f8; color: #24292e; }
.chat-container { flex: 1; display: flex; flex-direction: column; height: 100vh; }
.chat-body { flex: 1; overflow-y: auto; padding: 16px; display: flex; flex-direction: column; gap: 10px; }
.message { display: flex; }
.message.user { justify-content: flex-end; }
.message-content { max-width: 75%; padding: 8px 12px; border-radius: 10px; background: #fff; border: 1px solid #e1e4e8; }
.message.user .message-content { background: #dbeafe; white-space: pre-wrap; }
.message-content pre { padding: 8px; overflow-x: auto; border-radius: 6px; }
.timestamp { font-size: 11px; color: #6a737d; text-align: right; margin-top: 4px; }
.chat-input { display: flex; gap: 8px; padding: 12px; border-top: 1px solid #e1e4e8; background: #fff; }
#query-input { flex: 1; padding: 8px; }
.status { font-size: 12px; color: #6a737d; padding: 0 12px 8px; background: #fff; }
.sources { width: 320px; padding: 16px; border-left: 1px solid #e1e4e8; overflow-y: auto; background: #fff; }
#source-documents { list-style: none; padding: 0; }
#source-documents li { margin-bottom: 8px; word-break: break-all; }
.modal { display: none; position: fixed; inset: 0; background: rgba(0, 0, 0, 0.4); }
.modal.open { display: flex; align-items: center; justify-content: center; }
.modal-dialog { background: #fff; border-radius: 8px; padding: 20px; max-width: 640px; max-height: 80vh; overflow-y: auto; position: relative; word-break: break-word; }
.modal-close { position: absolute; top: 8px; right: 12px; text-decoration: none; font-size: 20px; }
`
