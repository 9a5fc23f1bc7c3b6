package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kittycore/pkg/domain"
)

type kittyResponse struct {
	ID    domain.KittyID   `json:"id"`
	DNA   domain.DNA       `json:"dna"`
	Price *domain.Balance  `json:"price"`
	Owner domain.AccountID `json:"owner"`
}

type breedRequest struct {
	ParentA domain.KittyID `json:"parent_a"`
	ParentB domain.KittyID `json:"parent_b"`
}

type priceRequest struct {
	Price string `json:"price" binding:"required"`
}

type transferRequest struct {
	To domain.AccountID `json:"to" binding:"required"`
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": msg})
}

func kittyParam(c *gin.Context) (domain.KittyID, bool) {
	id, err := domain.ParseKittyID(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid kitty id")
		return 0, false
	}
	return id, true
}

func (s *Server) getKitty(c *gin.Context) {
	id, ok := kittyParam(c)
	if !ok {
		return
	}
	k, err := s.service.Kitty(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	owner, err := s.service.Owner(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, kittyResponse{ID: k.ID, DNA: k.DNA, Price: k.Price, Owner: owner})
}

func (s *Server) getCount(c *gin.Context) {
	count, ok, err := s.service.KittiesCount(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"kitties_count": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kitties_count": count})
}

func (s *Server) getBalance(c *gin.Context) {
	who := domain.AccountID(c.Param("account"))
	free, err := s.service.FreeBalance(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": who, "free": free})
}

func (s *Server) createKitty(c *gin.Context) {
	id, err := s.service.Create(c.Request.Context(), originFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) breedKitty(c *gin.Context) {
	var req breedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	id, err := s.service.Breed(c.Request.Context(), originFrom(c), req.ParentA, req.ParentB)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) setPrice(c *gin.Context) {
	id, ok := kittyParam(c)
	if !ok {
		return
	}
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	price, err := domain.ParseBalance(req.Price)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if err := s.service.SetPrice(c.Request.Context(), originFrom(c), id, price); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) buyKitty(c *gin.Context) {
	id, ok := kittyParam(c)
	if !ok {
		return
	}
	if err := s.service.Buy(c.Request.Context(), originFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) transferKitty(c *gin.Context) {
	id, ok := kittyParam(c)
	if !ok {
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if err := s.service.Transfer(c.Request.Context(), originFrom(c), req.To, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
