package server

import "github.com/gin-gonic/gin"

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)

		ai := api.Group("/ai")
		ai.POST("/generate", s.generateCard)
		ai.POST("/field", s.generateField)
		ai.POST("/weapon-field", s.generateWeaponField)
		ai.POST("/ability-field", s.generateAbilityField)
		ai.POST("/describe", s.improveDescription)
		ai.POST("/weapon", s.generateWeapon)
		ai.POST("/ability", s.generateAbility)
		ai.POST("/energy-cost", s.generateEnergyCost)
		ai.GET("/context", s.getContext)
		ai.PUT("/context", s.putContext)

		cards := api.Group("/cards")
		cards.GET("", s.listCards)
		cards.POST("", s.createCard)
		cards.POST("/import", s.importCards)
		cards.GET("/export", s.exportCards)
		cards.GET("/:id", s.getCard)
		cards.PUT("/:id", s.updateCard)
		cards.DELETE("/:id", s.deleteCard)

		if s.decks != nil {
			decks := api.Group("/decks")
			decks.GET("", s.listDecks)
			decks.POST("", s.createDeck)
			decks.GET("/:id", s.getDeck)
			decks.PUT("/:id", s.updateDeck)
			decks.DELETE("/:id", s.deleteDeck)
			decks.GET("/:id/check", s.checkDeck)
		}
	}
}
