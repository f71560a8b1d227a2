// Package dates formats timestamps the way the firm's documents expect them:
// São Paulo local time and Brazilian day/month ordering.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/brunomcduarte96/deploy-smartlegal/internal/config"
	"github.com/brunomcduarte96/deploy-smartlegal/internal/model"
)

var location = mustLoad(config.TimeZone)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Location is America/Sao_Paulo.
func Location() *time.Location { return location }

// Now returns the current time in São Paulo.
func Now() time.Time { return time.Now().In(location) }

// Stamp renders t as YYYYmmdd_HHMMSS, used in folder and upload names.
func Stamp(t time.Time) string { return t.In(location).Format("20060102_150405") }

// BR renders t as dd/mm/yyyy.
func BR(t time.Time) string { return t.In(location).Format("02/01/2006") }

// ISO renders t as RFC 3339 with the São Paulo offset.
func ISO(t time.Time) string { return t.In(location).Format(time.RFC3339) }

var monthNames = []string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// PorExtenso renders t as "05 de março de 2024".
func PorExtenso(t time.Time) string {
	t = t.In(location)
	return fmt.Sprintf("%02d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

var (
	digitsPattern = regexp.MustCompile(`\d+`)
	monthReplacer = strings.NewReplacer(
		"janeiro", "01", "fevereiro", "02", "março", "03", "marco", "03",
		"abril", "04", "maio", "05", "junho", "06", "julho", "07", "agosto", "08",
		"setembro", "09", "outubro", "10", "novembro", "11", "dezembro", "12",
	)
	dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02/01/06", "02 01 2006", "2/1/2006"}
	timeLayouts = []string{"15:04", "15:04:05", "03:04 PM", "3:04 PM", "15"}
)

// FormatDate normalizes free text such as "10 de janeiro de 2024" or "2024-01-10" to dd/mm/yyyy.
// Empty input, NotInformed and unparseable text yield "".
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == model.NotInformed {
		return ""
	}
	s = strings.ReplaceAll(strings.ToLower(s), " de ", "/")
	s = monthReplacer.Replace(s)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}

	nums := digitsPattern.FindAllString(s, -1)
	if len(nums) < 3 {
		return ""
	}
	year := nums[2]
	if len(year) == 2 {
		year = "20" + year
	}
	return fmt.Sprintf("%s/%s/%s", pad2(nums[0]), pad2(nums[1]), year)
}

// FormatTime normalizes free text such as "14h30" or "2:30 PM" to HH:MM.
func FormatTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == model.NotInformed {
		return ""
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "hrs", ":00")
	s = strings.ReplaceAll(s, "h", ":")
	s = strings.TrimSuffix(s, ":")

	upper := strings.ToUpper(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format("15:04")
		}
	}

	nums := digitsPattern.FindAllString(s, -1)
	if len(nums) == 0 {
		return ""
	}
	minute := "00"
	if len(nums) > 1 {
		minute = pad2(nums[1])
	}
	return fmt.Sprintf("%s:%s", pad2(nums[0]), minute)
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
