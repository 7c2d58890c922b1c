package web

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-pugwiki/internal/linker"
	"github.com/go-while/go-pugwiki/internal/specialstats"
)

// wikiPage handles /wiki/:title; only Special:Statistics is served
func (s *WebServer) wikiPage(c *gin.Context) {
	s.servePage(c, c.Param("title"))
}

// indexPage handles the script path form /index.php?title=...
func (s *WebServer) indexPage(c *gin.Context) {
	s.servePage(c, c.Query("title"))
}

func (s *WebServer) servePage(c *gin.Context, titleText string) {
	title, err := linker.ParseTitle(titleText)
	if err != nil || !title.IsSpecial() || !strings.EqualFold(title.DBKey, "Statistics") {
		lang := s.userLanguage(c)
		s.renderError(c, http.StatusNotFound, "Page not found", "unknown page '"+titleText+"'", lang)
		return
	}
	s.statisticsPage(c)
}

// statisticsPage renders Special:Statistics
func (s *WebServer) statisticsPage(c *gin.Context) {
	lang := s.userLanguage(c)
	res, err := s.Page.Execute(c.Request.Context(), &specialstats.Context{
		Language:        lang,
		ContentLanguage: s.Messages.ContentLanguage(),
		SiteName:        s.Wiki.SiteName,
		Path:            c.Request.URL.Path,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, s.Messages.Msg(lang, "error-stats-unavailable").Text(), err.Error(), lang)
		return
	}

	data := StatsPageData{
		TemplateData: s.getBaseTemplateData(lang, res.Title),
		Content:      template.HTML(res.HTML),
	}
	s.renderTemplate(c, "statistics.html", data, lang)
}
