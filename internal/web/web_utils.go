package web

import (
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/messages"
)

// GetPort returns the listening port from the config
func (s *WebServer) GetPort() int {
	return s.Config.ListenPort
}

// userLanguage picks the user language from ?uselang=, defaulting to the content language
func (s *WebServer) userLanguage(c *gin.Context) messages.Language {
	if code := c.Query("uselang"); code != "" {
		return messages.NewLanguage(code)
	}
	return s.Messages.ContentLanguage()
}

// getBaseTemplateData creates a TemplateData struct with common information
func (s *WebServer) getBaseTemplateData(lang messages.Language, title string) TemplateData {
	return TemplateData{
		Title:       title,
		SiteName:    s.Wiki.SiteName,
		Lang:        lang.Code(),
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
	}
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string, lang messages.Language) {
	errorData := ErrorPageData{
		TemplateData: s.getBaseTemplateData(lang, s.Messages.Msg(lang, "error-title").Text()),
		Error:        message,
		StatusCode:   statusCode,
	}
	log.Printf("[ERROR]:internal/web: Error %d: %s - %s", statusCode, message, errstring)

	tmpl, err := parseTemplates("error.html")
	if err != nil {
		log.Printf("[WEB]: Error loading error template: %v", err)
		c.String(statusCode, "Error: %s", message)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(statusCode)
	if err := tmpl.ExecuteTemplate(c.Writer, "base.html", errorData); err != nil {
		log.Printf("[WEB]: Error rendering error template: %v", err)
	}
}

// renderTemplate renders a page template inside the base layout
func (s *WebServer) renderTemplate(c *gin.Context, templateName string, data interface{}, lang messages.Language) {
	tmpl, err := parseTemplates(templateName)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error(), lang)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := tmpl.ExecuteTemplate(c.Writer, "base.html", data); err != nil {
		log.Printf("[WEB]: Error rendering template %s: %v", templateName, err)
	}
}

// parseTemplates loads base.html together with one page template.
// Pages are parsed separately since each defines its own "content" block.
func parseTemplates(templateName string) (*template.Template, error) {
	return template.ParseFS(assets, "templates/base.html", "templates/"+templateName)
}
