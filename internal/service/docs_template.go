package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

var placeholderPattern = regexp.MustCompile(`\{[^{}\s]+\}`)

// FillDocumentTemplate copies templateID into folderID as name and replaces every {key}
// with its value. It returns the id of the new document.
func (c *DriveClient) FillDocumentTemplate(ctx context.Context, templateID string, replacements map[string]string, name, folderID string) (string, error) {
	if templateID == "" {
		return "", model.Kind(model.ErrDrive, fmt.Errorf("template id not configured for %q", name))
	}

	copyMeta := &drive.File{Name: name}
	if folderID != "" {
		copyMeta.Parents = []string{folderID}
	}
	copied, err := c.service.Files.Copy(templateID, copyMeta).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", driveErr("failed to copy template", err)
	}

	requests := buildReplaceRequests(replacements)
	if len(requests) > 0 {
		_, err = c.docsService.Documents.BatchUpdate(copied.Id, &docs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return "", driveErr("failed to fill template", err)
		}
	}

	log.Printf("Template %s filled into %s (%d replacements)", templateID, copied.Id, len(requests))
	return copied.Id, nil
}

// buildReplaceRequests returns one case-sensitive replaceAllText request per key, sorted by key.
func buildReplaceRequests(replacements map[string]string) []*docs.Request {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	requests := make([]*docs.Request, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{
					Text:      "{" + k + "}",
					MatchCase: true,
				},
				ReplaceText: replacements[k],
				// an empty replacement must still be sent
				ForceSendFields: []string{"ReplaceText"},
			},
		})
	}
	return requests
}

// UnfilledPlaceholders lists the {...} tokens still present in a document.
func (c *DriveClient) UnfilledPlaceholders(ctx context.Context, docID string) ([]string, error) {
	doc, err := c.docsService.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return nil, driveErr("failed to read document", err)
	}
	if doc.Body == nil {
		return nil, nil
	}
	return findPlaceholders(doc.Body.Content), nil
}

// findPlaceholders walks paragraphs and table cells once, keeping the first occurrence order.
func findPlaceholders(content []*docs.StructuralElement) []string {
	var found []string
	seen := make(map[string]bool)

	var walk func([]*docs.StructuralElement)
	walk = func(elements []*docs.StructuralElement) {
		for _, el := range elements {
			if el == nil {
				continue
			}
			if el.Paragraph != nil {
				var text string
				for _, pe := range el.Paragraph.Elements {
					if pe != nil && pe.TextRun != nil {
						text += pe.TextRun.Content
					}
				}
				for _, m := range placeholderPattern.FindAllString(text, -1) {
					if !seen[m] {
						seen[m] = true
						found = append(found, m)
					}
				}
			}
			if el.Table != nil {
				for _, row := range el.Table.TableRows {
					for _, cell := range row.TableCells {
						walk(cell.Content)
					}
				}
			}
		}
	}
	walk(content)
	return found
}

// AppendRows appends rows after the last row of rng, parsing values as typed by a user.
func (c *DriveClient) AppendRows(ctx context.Context, sheetID, rng string, rows [][]interface{}) error {
	if sheetID == "" {
		return nil
	}
	_, err := c.sheetsService.Spreadsheets.Values.Append(sheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return driveErr("failed to append rows", err)
	}
	return nil
}

// UpdateSheetsWithClientData appends the client to both tracking spreadsheets.
func (c *DriveClient) UpdateSheetsWithClientData(ctx context.Context, client *model.Client) error {
	first, second := clientSheetRows(client)
	if err := c.AppendRows(ctx, config.SheetID1, config.SheetRange, [][]interface{}{first}); err != nil {
		return fmt.Errorf("failed to update sheet 1: %w", err)
	}
	if err := c.AppendRows(ctx, config.SheetID2, config.SheetRange, [][]interface{}{second}); err != nil {
		return fmt.Errorf("failed to update sheet 2: %w", err)
	}
	log.Printf("Sheets updated for %s", client.NomeCompleto)
	return nil
}

func clientSheetRows(client *model.Client) (first, second []interface{}) {
	first = []interface{}{client.NomeCompleto, client.Email, client.Celular, client.Caso, client.ResponsavelComercial}
	second = []interface{}{client.NomeCompleto, client.Nacionalidade, client.EstadoCivil, client.Profissao, client.CPF}
	return first, second
}
