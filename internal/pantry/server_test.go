package pantry

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/pantry-tracker/internal/generation"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		labeler     *mockLabeler
		generator   *mockGenerator
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		labeler = &mockLabeler{label: "peanut butter"}
		generator = newMockGenerator()
	})

	JustBeforeEach(func() {
		service := NewServiceWithDeps(db, labeler, generator, storage, &mockIDGenerator{id: testCaptureID}, &defaultTimeSource{})
		server = NewServerWithMux(service, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	do := func(method, path, contentType string, body []byte) (*http.Response, []byte) {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, data
	}

	doJSON := func(method, path string, v any) (*http.Response, []byte) {
		body, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		return do(method, path, "application/json", body)
	}

	errorMessage := func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		Expect(json.Unmarshal(body, &e)).To(Succeed())
		return e.Error
	}

	Describe("handleIndex", func() {
		When("request method is GET", func() {
			It("should return HTML containing Pantry Tracker", func() {
				resp, body := do("GET", "/", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(string(body)).To(ContainSubstring("Pantry Tracker"))
			})
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp, _ := do("POST", "/", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			})
		})
	})

	Describe("static files", func() {
		It("serves controllers as JavaScript", func() {
			resp, body := do("GET", "/static/controllers/pantry_controller.js", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("application/javascript"))
			Expect(body).NotTo(BeEmpty())
		})
	})

	Describe("CORS", func() {
		It("answers preflight requests", func() {
			resp, _ := do("OPTIONS", "/api/items", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("handleListItems", func() {
		BeforeEach(func() {
			db.items["apples"] = &Item{Name: "apples", Count: 1}
			db.items["pineapple"] = &Item{Name: "pineapple", Count: 4}
			db.items["bread"] = &Item{Name: "bread", Count: 2}
		})

		When("search and sort are given", func() {
			It("returns the filtered, sorted items", func() {
				resp, body := do("GET", "/api/items?search=apple&sort=count_desc", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var items []*Item
				Expect(json.Unmarshal(body, &items)).To(Succeed())
				Expect(names(items)).To(Equal([]string{"pineapple", "apples"}))
			})
		})

		When("the sort order is unknown", func() {
			It("returns status Bad Request", func() {
				resp, body := do("GET", "/api/items?sort=price", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(errorMessage(body)).To(ContainSubstring("unknown sort order"))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("boom")
			})

			It("returns status Internal Server Error", func() {
				resp, body := do("GET", "/api/items", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(errorMessage(body)).To(Equal("Internal server error"))
			})
		})
	})

	Describe("handleAddItem", func() {
		When("the request is valid", func() {
			It("returns the created item", func() {
				resp, body := doJSON("POST", "/api/items", map[string]string{"name": "Milk", "note": "2%"})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var item Item
				Expect(json.Unmarshal(body, &item)).To(Succeed())
				Expect(item.Name).To(Equal("milk"))
				Expect(item.Count).To(Equal(1))
				Expect(item.Note).To(Equal("2%"))
			})
		})

		When("the name is blank", func() {
			It("returns status Bad Request", func() {
				resp, body := doJSON("POST", "/api/items", map[string]string{"name": " "})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(errorMessage(body)).To(Equal(ErrEmptyName.Error()))
			})
		})

		When("the capture id is malformed", func() {
			It("returns status Bad Request", func() {
				resp, _ := doJSON("POST", "/api/items", map[string]string{"name": "jam", "capture_id": "../db"})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the body is not JSON", func() {
			It("returns status Bad Request", func() {
				resp, body := do("POST", "/api/items", "application/json", []byte("{"))
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(errorMessage(body)).To(Equal("Invalid request body"))
			})
		})
	})

	Describe("handleIncrementItem", func() {
		BeforeEach(func() {
			db.items["eggs"] = &Item{Name: "eggs", Count: 6}
		})

		It("adds one", func() {
			resp, body := do("POST", "/api/items/eggs/increment", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var item Item
			Expect(json.Unmarshal(body, &item)).To(Succeed())
			Expect(item.Count).To(Equal(7))
		})
	})

	Describe("handleDecrementItem", func() {
		BeforeEach(func() {
			db.items["eggs"] = &Item{Name: "eggs", Count: 1}
		})

		It("removes the last one", func() {
			resp, _ := do("POST", "/api/items/eggs/decrement", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.items).NotTo(HaveKey("eggs"))
		})
	})

	Describe("handleRenameItem", func() {
		BeforeEach(func() {
			db.items["flour"] = &Item{Name: "flour", Count: 2}
		})

		When("the item exists", func() {
			It("returns the renamed item", func() {
				resp, body := doJSON("PUT", "/api/items/flour/name", map[string]string{"name": "Bread Flour"})
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var item Item
				Expect(json.Unmarshal(body, &item)).To(Succeed())
				Expect(item.Name).To(Equal("bread flour"))
			})
		})

		When("the item does not exist", func() {
			It("returns status No Content", func() {
				resp, _ := doJSON("PUT", "/api/items/ghost/name", map[string]string{"name": "spirit"})
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			})
		})

		When("the new name is blank", func() {
			It("returns status Bad Request", func() {
				resp, _ := doJSON("PUT", "/api/items/flour/name", map[string]string{"name": ""})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleSetNote", func() {
		BeforeEach(func() {
			db.items["rice"] = &Item{Name: "rice", Count: 1}
		})

		It("returns the updated item", func() {
			resp, body := doJSON("PUT", "/api/items/rice/note", map[string]string{"note": "basmati"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var item Item
			Expect(json.Unmarshal(body, &item)).To(Succeed())
			Expect(item.Note).To(Equal("basmati"))
		})
	})

	Describe("handleGetItemPhoto", func() {
		When("the item has no photo", func() {
			BeforeEach(func() {
				db.items["rice"] = &Item{Name: "rice", Count: 1}
			})

			It("returns status Not Found", func() {
				resp, body := do("GET", "/api/items/rice/photo", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				Expect(errorMessage(body)).To(Equal("Photo not found"))
			})
		})

		When("the item has a photo", func() {
			BeforeEach(func() {
				db.items["rice"] = &Item{Name: "rice", Count: 1, Photo: testCaptureID}
				storage.files[testCaptureID] = []byte("\xff\xd8\xff\xe0jpeg")
			})

			It("serves it with its content type", func() {
				resp, body := do("GET", "/api/items/rice/photo", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
				Expect(body).To(Equal([]byte("\xff\xd8\xff\xe0jpeg")))
			})
		})
	})

	Describe("handleCapture", func() {
		When("the frame is sent as a data URL", func() {
			It("returns the capture with its label", func() {
				image := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("frame"))
				resp, body := doJSON("POST", "/api/captures", map[string]string{"image": image})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var capture Capture
				Expect(json.Unmarshal(body, &capture)).To(Succeed())
				Expect(capture.ID).To(Equal(testCaptureID))
				Expect(capture.Label).To(Equal("peanut butter"))
				Expect(storage.files[testCaptureID]).To(Equal([]byte("frame")))
			})
		})

		When("the frame is uploaded as a file", func() {
			It("returns the capture", func() {
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				part, err := writer.CreateFormFile("file", "frame.jpg")
				Expect(err).NotTo(HaveOccurred())
				_, err = part.Write([]byte("frame"))
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.Close()).To(Succeed())

				resp, _ := do("POST", "/api/captures", writer.FormDataContentType(), buf.Bytes())
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			})
		})

		When("the labeler fails", func() {
			BeforeEach(func() {
				labeler.labelErr = errors.New("model unavailable")
			})

			It("still returns the capture with an empty label", func() {
				image := base64.StdEncoding.EncodeToString([]byte("frame"))
				resp, body := doJSON("POST", "/api/captures", map[string]string{"image": image})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var capture Capture
				Expect(json.Unmarshal(body, &capture)).To(Succeed())
				Expect(capture.Label).To(BeEmpty())
			})
		})

		When("no image is sent", func() {
			It("returns status Bad Request", func() {
				resp, body := doJSON("POST", "/api/captures", map[string]string{"image": ""})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(errorMessage(body)).To(Equal(ErrEmptyFrame.Error()))
			})
		})

		When("the image is not base64", func() {
			It("returns status Bad Request", func() {
				resp, body := doJSON("POST", "/api/captures", map[string]string{"image": "data:image/jpeg;base64,@@@"})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(errorMessage(body)).To(Equal("Could not read the captured image"))
			})
		})
	})

	Describe("handleDiscardCapture", func() {
		BeforeEach(func() {
			storage.files[testCaptureID] = []byte("frame")
		})

		It("deletes the frame", func() {
			resp, _ := do("DELETE", "/api/captures/"+testCaptureID, "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(storage.files).To(BeEmpty())
		})

		It("rejects ids that are not capture ids", func() {
			resp, _ := do("DELETE", "/api/captures/not-a-capture", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleGenerateRecipe", func() {
		When("generation succeeds", func() {
			It("returns the recipe", func() {
				resp, body := doJSON("POST", "/api/generate-recipe", map[string][]string{"ingredients": {"water", "salt"}})
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var result struct {
					Recipe generation.RecipeData `json:"recipe"`
				}
				Expect(json.Unmarshal(body, &result)).To(Succeed())
				Expect(result.Recipe.Title).To(Equal("Soup"))
				Expect(result.Recipe.Ingredients).To(Equal("water\nsalt"))
			})
		})

		When("generation fails", func() {
			BeforeEach(func() {
				generator.generateErr = errors.New("rate limited")
			})

			It("returns the fixed failure body", func() {
				resp, body := doJSON("POST", "/api/generate-recipe", map[string][]string{"ingredients": {"water"}})
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(body).To(MatchJSON(`{"error": "Failed to generate recipe"}`))
			})
		})

		When("no ingredients are given", func() {
			It("returns status Bad Request without calling the generator", func() {
				resp, _ := doJSON("POST", "/api/generate-recipe", map[string][]string{"ingredients": {}})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(generator.ingredients).To(BeEmpty())
			})
		})
	})

	Describe("handleGenerateFromPantry", func() {
		BeforeEach(func() {
			db.items["eggs"] = &Item{Name: "eggs", Count: 6}
		})

		It("generates from the checked items", func() {
			resp, _ := doJSON("POST", "/api/generate-recipe/pantry", map[string][]string{"names": {"eggs", "caviar"}})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(generator.ingredients).To(Equal([][]string{{"eggs"}}))
		})
	})

	Describe("handleRecipeBoard", func() {
		BeforeEach(func() {
			db.items["rice"] = &Item{Name: "rice", Count: 1}
			db.recipes["r1"] = &Recipe{ID: "r1", Title: "Fried rice"}
		})

		It("returns pantry names and recipes", func() {
			resp, body := do("GET", "/api/recipe-board", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var board RecipeBoard
			Expect(json.Unmarshal(body, &board)).To(Succeed())
			Expect(board.Pantry).To(Equal([]string{"rice"}))
			Expect(board.Recipes).To(HaveLen(1))
		})
	})

	Describe("handleListRecipes", func() {
		When("no recipes exist", func() {
			It("returns an empty array", func() {
				resp, body := do("GET", "/api/recipes", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(MatchJSON(`[]`))
			})
		})
	})

	Describe("handleGetRecipe", func() {
		When("the recipe does not exist", func() {
			It("returns status Not Found", func() {
				resp, body := do("GET", "/api/recipes/nope", "", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				Expect(errorMessage(body)).To(Equal("Recipe not found"))
			})
		})
	})

	Describe("handleSaveRecipe", func() {
		When("the recipe has a title", func() {
			It("returns the saved recipe", func() {
				resp, body := doJSON("POST", "/api/recipes", generation.RecipeData{Title: "Soup", Ingredients: "water", Instructions: "boil"})
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var recipe Recipe
				Expect(json.Unmarshal(body, &recipe)).To(Succeed())
				Expect(recipe.ID).To(Equal(testCaptureID))
				Expect(db.recipes).To(HaveKey(testCaptureID))
			})
		})

		When("the title is blank", func() {
			It("returns status Bad Request", func() {
				resp, _ := doJSON("POST", "/api/recipes", generation.RecipeData{Ingredients: "water"})
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleDeleteRecipe", func() {
		BeforeEach(func() {
			db.recipes["r1"] = &Recipe{ID: "r1", Title: "Soup"}
		})

		It("removes the recipe", func() {
			resp, _ := do("DELETE", "/api/recipes/r1", "", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.recipes).To(BeEmpty())
		})
	})
})
